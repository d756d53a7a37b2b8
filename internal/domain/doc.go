// Package domain holds the card document model: cards, their front and back
// sides, and the positioned elements drawn on each side. Side values encode
// to the JSON record stored with each card.
package domain
