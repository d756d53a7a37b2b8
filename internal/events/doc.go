// Package events provides a small in-process event bus.
//
// Services publish domain events such as card.saved without knowing who
// consumes them; handlers registered on the emitter react to them, for
// example by invalidating cached print exports for the affected deck.
package events
