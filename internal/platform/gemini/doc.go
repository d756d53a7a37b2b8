// Package gemini implements extraction.Extractor on top of Google's Gemini API.
//
// An upload is sent to the model together with a prompt asking for
// front/back pairs as JSON. PDFs with a text layer are sent as extracted
// text; images and scanned PDFs are sent inline. The raw reply is handed to
// extraction.ParsePairs, so a reply that is not valid JSON still yields a
// usable pair.
//
// Transient API failures are retried with exponential backoff and jitter.
// Safety blocks are permanent and are reported as extraction.ErrContentBlocked.
package gemini
