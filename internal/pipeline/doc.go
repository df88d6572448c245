// Package pipeline composes fragments into one runner script and executes it.
//
// A run takes a prefix of the registry (or all of it), concatenates the
// fragment bodies in id order, splices them into the runner boilerplate and
// hands the script to a single interpreter process together with a JSON
// request. The interpreter writes a JSON response to the file named by
// OUTPUT_FILE. Runner turns process failures into *ExecutionError and results
// that violate the run contract into *PipelineError.
//
// The interpreter call sits behind Executor so tests can substitute a fake
// without spawning processes. ProcessExecutor is the real implementation.
//
// Runs are synchronous and never overlap. The data map returned by one run is
// carried into the request of the next run on the same Runner.
package pipeline
