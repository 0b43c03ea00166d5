// Package geo provides the geometric primitives behind vehicle positioning:
// great-circle bearing and distance, line preprocessing into cumulative
// distance/bearing arrays, point-to-line snapping, and distance-based
// interpolation along a preprocessed line.
//
// All distances are meters, all bearings are degrees in [0,360), and all
// functions are pure. Malformed input (fewer than 2 coordinates) yields
// degenerate results rather than errors.
package geo
