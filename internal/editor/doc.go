// Package editor implements the card editing engine: pure element transforms
// over card values, a linear undo/redo history of card snapshots, and the
// Session type that ties selection and pointer dragging to that history.
//
// Every mutation produces a new card value. A Session always holds the latest
// value and hands out copies, so a snapshot recorded in History can never be
// changed by a later edit.
package editor
