// Package patch implements the leappatch engine: declarative, idempotent
// text edits applied to a single source artifact.
//
// A run loads the artifact into one buffer, pushes it through a fixed
// sequence of stages and persists the result once:
//
//	Loaded -> FieldInjected -> RegionReplaced -> Inserted -> Rewritten -> Persisted
//
// Any fatal fault moves the run to Aborted. Rules never fail on a missing
// pattern; they report an Outcome (Applied, NotFound or SkippedGuarded)
// instead, and strict mode turns misses into errors.
//
// The package imports only the standard library and golang.org/x/text
// (plus chardet for encoding detection), so it can be embedded without the CLI.
package patch
