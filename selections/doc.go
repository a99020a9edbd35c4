// Package selections renders a solved result as a selections document:
// the persistable XML record of which implementation was chosen for each
// interface. The output is deterministic, so documents can be diffed and
// checked into version control.
package selections
