//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/internal/webdemo"
)

var (
	engine *webdemo.Engine
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		window := 64
		if len(args) > 0 && args[0].Type() == js.TypeNumber {
			window = args[0].Int()
		}
		e, err := webdemo.NewEngine(window)
		if err != nil {
			return err.Error()
		}
		engine = e
		return js.Null()
	}))

	api.Set("addRR", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		arr := args[0]
		batch := make([]int, arr.Length())
		for i := range batch {
			batch[i] = arr.Index(i).Int()
		}
		m, ok := engine.AddRR(batch)
		if !ok {
			return js.Null()
		}
		return metricsObject(m)
	}))

	api.Set("current", export(func(args []js.Value) any {
		if engine == nil {
			return js.Null()
		}
		m, ok := engine.Current()
		if !ok {
			return js.Null()
		}
		return metricsObject(m)
	}))

	api.Set("reset", export(func(args []js.Value) any {
		if engine != nil {
			engine.Reset()
		}
		return js.Null()
	}))

	api.Set("bufferSeconds", export(func(args []js.Value) any {
		if engine == nil {
			return 0
		}
		return engine.BufferSeconds()
	}))

	api.Set("spectrum", export(func(args []js.Value) any {
		if engine == nil {
			return js.Global().Get("Array").New(0)
		}
		maxHz := 0.5
		if len(args) > 0 {
			maxHz = args[0].Float()
		}
		pts := engine.Spectrum(maxHz)
		freqs := js.Global().Get("Float64Array").New(len(pts))
		power := js.Global().Get("Float64Array").New(len(pts))
		for i, p := range pts {
			freqs.SetIndex(i, p.FreqHz)
			power.SetIndex(i, p.Power)
		}
		out := js.Global().Get("Object").New()
		out.Set("freqs", freqs)
		out.Set("power", power)
		return out
	}))

	js.Global().Set("AlgoHRV", api)
	select {}
}

func metricsObject(m hrv.Metrics) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("coherenceScore", m.CoherenceScore)
	obj.Set("rmssd", m.RMSSD)
	obj.Set("meanHR", m.MeanHR)
	obj.Set("lfPower", m.LFPower)
	obj.Set("hfPower", m.HFPower)
	obj.Set("rrCount", m.RRCount)
	obj.Set("artifactsRemoved", m.ArtifactsRemoved)
	obj.Set("timestamp", m.Timestamp.UnixMilli())
	obj.Set("sequence", float64(m.Sequence))
	return obj
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
