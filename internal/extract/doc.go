// Package extract slices marker-delimited regions out of text.
//
// Markers are literal, case-sensitive strings and only their first occurrence
// counts. The same primitive pulls named sections out of the bundled runner
// asset and separates a user's fragment body from the boilerplate shown above
// it in the editor.
package extract
