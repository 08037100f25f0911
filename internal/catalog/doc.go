// Package catalog compiles the static module configuration.
//
// The catalog is written in CUE. Each entry under the top-level `module`
// struct describes one module item: its yield rate, setup cost, execution
// cost, probabilistic guest/owner yields, friend messages and arcade prizes.
//
// Compilation unifies user files with an embedded schema (schema.cue), so
// unknown fields, negative quantities and out-of-range probabilities are
// rejected with source positions. The setup-cost shape is resolved once here
// from the editor type: trade-family editors get a TradeCost, entries with a
// setup item list get an ItemizedCost, everything else has no setup concept.
//
// A compiled Catalog is immutable and safe for concurrent reads.
package catalog
