// Package extraction defines the boundary to the external service that turns
// an uploaded document or image into front/back text pairs, and the parsing of
// its raw output into those pairs.
//
// Malformed output is not an error: ParsePairs degrades to a single pair whose
// back holds the raw text, so the user always gets something to edit.
package extraction
