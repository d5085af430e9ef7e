// Package engine assembles one output document from a start file.
//
// The engine resolves directives found in the start file, recursively
// expanding the content each directive loads, until no directive remains.
// The expanded text is then written once to the output file.
//
// ARCHITECTURE:
//
// Run:
// 1. New validates the start file and the output guard
// 2. Assemble builds a fresh Load Registry and loads the start file at depth 0
// 3. expand scans the buffer once, resolves each distinct span once and
// replaces every copy of it; replacement text is never rescanned
// 4. Run re-checks the output guard and writes under a file lock
// 5. The outcome, success or failure, is handed to the Recorder if one is set
//
// Execution is single-threaded and depth-first. Resolution order inside a
// buffer is left to right by first occurrence, because duplicate suppression
// depends on what earlier resolutions registered.
//
// All-or-nothing:
// Nothing is written until expansion has completed without error. A failed
// run leaves the output path exactly as it found it.
//
// Literal replacement:
// Every copy of a matched span is replaced by the content computed for its
// first occurrence. Two textually identical directives therefore always
// receive the same content, even when a later one would have resolved
// differently on its own.
package engine
