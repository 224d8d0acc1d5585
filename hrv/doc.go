// Package hrv turns a stream of RR-interval batches into heart-rate
// variability snapshots.
//
// A [Processor] keeps a sliding window of the most recent beats (64 s by
// default). Every batch is appended, the window is trimmed from the front and,
// once at least 30 s and 30 beats are buffered, the window is cleaned with
// [artifact.Corrector] and analyzed with [spectral.Analyzer] and
// RMSSD. The resulting [Metrics] value is kept until the next successful
// computation replaces it, so a snapshot may be older than the last batch;
// [Metrics.Timestamp] and [Metrics.Sequence] tell the two apart.
//
// Processor is not safe for concurrent use. [Session] wraps one behind a
// mutex and fans fresh snapshots out to subscribers.
package hrv
