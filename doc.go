// Package loadout models a vehicle assembled from modular equipment
// fragments: a path-addressing layer over nested records, reconstruction of
// upgrade progressions from flat back-referencing step tables,
// descriptor-driven module selection, and an invertible modifier pipeline
// for crew skills, consumables and equipment bonuses.
//
// The package performs no I/O. Raw records come from the surrounding
// data-retrieval layer (see internal/hydrate and pkg/state) and all reads
// and writes go through the Record path operations.
package loadout
