package sensor

import (
	"context"

	"github.com/cwbudde/algo-hrv/hrv"
)

// PumpHooks are optional callbacks invoked by [Pump]. Nil fields are skipped.
type PumpHooks struct {
	// OnHeartRate runs for every notification, before it is pushed.
	OnHeartRate func(HeartRate)
	// OnMetrics runs for every fresh snapshot.
	OnMetrics func(hrv.Metrics)
	// OnState runs for every state transition, after a Disconnected
	// transition has reset the session.
	OnState func(ConnectionState)
	// OnBattery runs for every battery level change.
	OnBattery func(int)
}

// Pump forwards the RR intervals of src into sess until src is shut down or
// ctx is done. The session is reset whenever src reports Disconnected, so a
// reconnect never mixes beats from two recordings. Notifications the source
// queued before the disconnect are pushed ahead of the reset.
//
// Pump returns nil when src is shut down and ctx.Err() on cancellation.
func Pump(ctx context.Context, src Source, sess *hrv.Session, hooks PumpHooks) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-src.Done():
			return nil
		case st := <-src.States():
			if st == Disconnected {
				drain(src, sess, hooks)
				sess.Reset()
			}
			if hooks.OnState != nil {
				hooks.OnState(st)
			}
		case hr := <-src.HeartRates():
			push(sess, hooks, hr)
		case level := <-src.Batteries():
			if hooks.OnBattery != nil {
				hooks.OnBattery(level)
			}
		}
	}
}

// drain pushes the notifications already queued by src. Transports emit a
// notification before reporting the disconnect that follows it, so the
// queue holds every beat of the finished connection.
func drain(src Source, sess *hrv.Session, hooks PumpHooks) {
	for {
		select {
		case hr := <-src.HeartRates():
			push(sess, hooks, hr)
		default:
			return
		}
	}
}

func push(sess *hrv.Session, hooks PumpHooks, hr HeartRate) {
	if hooks.OnHeartRate != nil {
		hooks.OnHeartRate(hr)
	}
	if len(hr.RR) == 0 {
		return
	}
	if m, fresh := sess.Push(hr.RR); fresh && hooks.OnMetrics != nil {
		hooks.OnMetrics(m)
	}
}
