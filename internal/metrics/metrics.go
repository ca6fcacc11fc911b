// Package metrics defines the observation sink the engine reports external
// call outcomes to. The sink is consumed, not produced, here: the host
// application supplies an implementation and failures in it are swallowed so
// observability can never affect engine correctness.
package metrics

import "time"

// Outcome classifies how an external call ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
	OutcomeNoMatch Outcome = "no_match"
)

// Call describes one completed call to an external provider or store.
type Call struct {
	Provider   string
	Operation  string
	StatusCode int
	Duration   time.Duration
	Attempt    int
	Outcome    Outcome
}

// Sink receives per-call observations.
type Sink interface {
	ObserveCall(Call)
}

type nopSink struct{}

func (nopSink) ObserveCall(Call) {}

// Nop returns a sink that discards all observations.
func Nop() Sink {
	return nopSink{}
}

// Observe reports a call to the sink, tolerating nil sinks and panicking
// implementations.
func Observe(sink Sink, call Call) {
	if sink == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	sink.ObserveCall(call)
}
