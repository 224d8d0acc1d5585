// Package artifact detects implausible beats in an RR-interval series and
// replaces them in place with values from a natural cubic spline fitted
// through the surrounding good beats.
//
// Correction never deletes samples: the cleaned series always has the same
// length as the input. A beat is an artifact when it lies outside the
// physiological range or deviates too far from the median of its local
// neighbourhood.
package artifact
