// Package interp provides interpolation primitives for irregular and
// fractional-index signals.
//
// Available methods:
//
//   - [Linear2]:          2-point linear interpolation at a fractional position
//   - [LinearAt]:         linear interpolation between two (t, v) points
//   - [FitNaturalSpline]: natural cubic spline over strictly increasing knots
//
// The spline reproduces linear data exactly and has zero curvature at both
// end knots. Outside the knot range it extends the first or last segment's
// cubic instead of projecting linearly.
package interp
