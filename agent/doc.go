// Package agent runs single request/response turns against a text generator
// while keeping a per-conversation message history.
//
// Turn:
//
//	incoming -> validate roles -> history + incoming (+ system instruction once) -> Generate -> history + reply
//
// Invariants:
//   - Exactly one Generate call per successful validation.
//   - A history holds at most the system messages callers send plus one
//     instruction inserted when none is present.
//   - A failed turn leaves the stored history untouched.
//   - Turns on the same history id are serialised; distinct ids run in parallel.
package agent
