// Package cluster implements sequential-recombination jet clustering.
//
// Responsibilities: four-momentum kinematics (PseudoJet), jet definitions for
// the kt family of algorithms (anti-kt, Cambridge/Aachen, kt, generalised kt)
// and their e+e- counterparts (generalised ee-kt, Durham), the clustering
// engine with its N² plain and N² tiled nearest-neighbour strategies, and
// the merge history from which inclusive and exclusive jets are read back.
// Key types: PseudoJet, JetDefinition, Sequence, HistoryElement.
//
// The engine is deterministic: for a given input and definition the history
// is identical whichever strategy is used. Distance ties are broken by the
// lowest jet index so that strategies that visit jets in a different order
// still make the same choices.
//
// No timing, I/O or selection policy lives here; see internal/bench.
package cluster
