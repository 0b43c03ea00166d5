// Package track extracts the directional path a vehicle travels between two
// stations on a preprocessed line. Extraction is deliberately forgiving: when
// an exact cut-out cannot be produced it degrades to a straight two-point
// approximation instead of failing, so position rendering never has to
// special-case a missing path.
package track
