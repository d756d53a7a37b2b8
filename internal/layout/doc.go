// Package layout computes how index cards are packed onto printed sheets and
// splits a deck into an ordered list of front and back pages.
//
// Everything here works in PDF points (1/72 inch) and is free of side effects.
// Scaling for previews or exports happens later, in the render package.
package layout
