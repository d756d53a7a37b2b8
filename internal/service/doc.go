// Package service contains the application use cases that sit between the
// HTTP layer and the core packages.
//
//   - EditingService keeps one in-memory editor.Session per open card, serialises
//     access to it, and persists the document on save.
//   - PrintService lays out decks, renders PDF and PNG exports, and caches the
//     results.
//   - ImportService turns uploaded documents into new cards through an
//     extraction.Extractor.
//
// Services receive their dependencies through constructors and depend only on
// interfaces, never on a concrete database, cache or renderer.
package service
