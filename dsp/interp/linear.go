package interp

// Linear2 interpolates between x0 and x1 at frac in [0,1].
func Linear2(frac, x0, x1 float64) float64 {
	return x0 + frac*(x1-x0)
}

// LinearAt evaluates the line through (t0, v0) and (t1, v1) at t.
// A degenerate segment (t1 <= t0) yields v0.
func LinearAt(t, t0, t1, v0, v1 float64) float64 {
	if t1 <= t0 {
		return v0
	}
	return Linear2((t-t0)/(t1-t0), v0, v1)
}
