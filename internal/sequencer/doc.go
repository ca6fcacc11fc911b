// Package sequencer provides the single-lane, priority-ordered request
// pipeline used for providers with a hard global rate ceiling. Exactly one
// request is in flight at a time; dispatches are spaced by a minimum
// interval; transient failures retry with exponential backoff.
//
// All queue state is owned by one scheduling goroutine. Callers communicate
// with it through channels, never shared fields.
package sequencer
