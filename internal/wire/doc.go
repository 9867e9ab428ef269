// Package wire owns the match stream wire contract and parsing
// primitives.
//
// Ownership boundary:
// - byte cursor primitives
// - length-prefixed frame reassembly
// - codecs for the fixed message shapes
package wire
