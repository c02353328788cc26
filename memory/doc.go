// Package memory holds the message model and conversation storage.
//
// Storage model:
//   - A history is an ordered list of role-tagged text messages keyed by id.
//   - Histories only grow; nothing is truncated or summarised.
//   - Transcripts are JSON exports of a single history, not a backing store.
package memory
