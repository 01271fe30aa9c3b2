// Package io reads knapsack problems and writes their solutions.
//
// # Text Format
//
// A problem file lists the item count and capacity on its first line,
// followed by one "<value> <weight>" line per item in input order:
//
//	4 10
//	40 2
//	50 3
//	100 4
//	95 5
//
// A solution file holds the objective on its first line and the selection
// vector, in input order, on its second:
//
//	195
//	0 0 1 1
//
// Fields are separated by any run of spaces or tabs. Blank lines after the
// last item are ignored; anything else that does not match the layout is
// rejected with an [errors.ErrCodeInvalidFormat] error naming the line.
//
// # Import
//
// Use [ImportProblem] to read a problem from a file path, or [ReadProblem]
// to read from any io.Reader:
//
//	p, err := io.ImportProblem("input/ks_4_0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both validate the whole input before returning, so no solver ever sees a
// partially parsed problem.
//
// # Export
//
// Use [ExportSolution] to write a solution to a file, or [WriteSolution] to
// write to any io.Writer. [ReadSolution] reads the same format back, which
// the solution cache relies on.
//
// # JSON
//
// [ReadProblemJSON] and [WriteSolutionJSON] carry the same data as JSON for
// the HTTP API:
//
//	{"capacity": 10, "items": [{"value": 40, "weight": 2}, ...]}
//
// [errors.ErrCodeInvalidFormat]: github.com/matzehuels/knapsack/pkg/errors.ErrCodeInvalidFormat
package io
