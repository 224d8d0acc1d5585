// Package time provides time-domain statistics of RR-interval series:
// mean, median, SDNN, RMSSD and pNN50.
package time
