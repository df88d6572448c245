// Package template owns the bundled Python runner boilerplate and the codec
// that moves fragment bodies in and out of it.
//
// Users never see or store the full runner. The editor is shown the runner's
// variable preamble, a sentinel marker line and the fragment body; on save
// only the text below the marker is kept. At run time the stored bodies are
// spliced back into the runner's operation template region.
//
// The boilerplate values are derived once from the embedded runner.py when the
// package is initialized and never change afterwards.
package template
