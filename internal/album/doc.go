// Package album defines the canonical album record, the candidate shape
// ingestion sources submit, identity normalization, and the field-by-field
// merge policy applied when two records describe the same real-world album.
//
// Identity is two-tier: an album either carries an external catalog ID
// (authoritative, stable) or a generated internal ID. Records without an
// external ID are addressed by a normalized artist+album key. Promotion from
// internal to external identity happens exactly once and never reverses.
package album
