package requirement

import "errors"

// ErrSchemaIntegrity signals that CheckValidity found a Command enumerator
// with no registered handler. Fatal — the process aborts at startup rather
// than silently skipping obligations later.
var ErrSchemaIntegrity = errors.New("requirement: command has no registered handler")

// ErrFatal marks a dispatched handler error as an operator-level invariant
// violation rather than an ordinary playback failure — per spec §7,
// LegalIdExhausted is the canonical example ("the engine is configured to
// require a legal id and cannot proceed without one"). Handlers in
// internal/command wrap their fatal sentinels with this (errors.Is still
// finds the original), so RunBlock can recognize them without importing the
// command package and abort the batch instead of logging and continuing.
var ErrFatal = errors.New("requirement: fatal requirement handler error")
