// Package sensor connects heart-rate transports to an [hrv.Session].
//
// A transport implements [Source]: it can scan for devices, connect to one
// and then streams [HeartRate] samples carrying RR intervals. [Pump] forwards
// those samples into a session and resets the session whenever the source
// reports a disconnect, after pushing the samples queued before it. Sources
// that know their sensor's battery level report it through the same
// [Feed]. A [Registry] owns at most one live source, created
// lazily per transport [Mode] and shut down when the mode changes.
package sensor
