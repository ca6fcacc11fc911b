// Package engine owns identity resolution and the upsert entry point all
// album data flows through. It decides whether a candidate becomes a new
// canonical row or merges into an existing one, and reports which enrichments
// the written row still lacks so callers can enqueue background work without
// a separate read.
package engine
