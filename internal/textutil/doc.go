// Package textutil provides token fingerprints and cosine similarity used to
// gate fuzzy provider matches. A candidate result below the configured
// similarity threshold is treated as no-match rather than risking attaching
// metadata to the wrong album.
//
// Fingerprints are term-frequency vectors. Tokenization lowercases text,
// splits on non-alphanumeric sequences, and keeps tokens of two or more
// characters so short album words still contribute.
package textutil
