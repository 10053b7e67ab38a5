// Package lotledger reconstructs portfolio state and computes realized tax
// events from a normalized transaction history.
//
// The package works on full histories only: state is derived by replaying
// every transaction in chronological order, never by patching a previous
// result. Reconstruct produces positions and cash through a moving-average
// cost model; Engine matches disposals against acquisition lots under a
// selectable cost basis method (FIFO or weighted average) and emits one
// TaxEvent per match.
//
// All quantities and monetary amounts are exact decimals; nothing in the
// package passes a value through a float.
package lotledger
