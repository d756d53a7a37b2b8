// Package render turns print jobs into output: a PDF document for printing and
// PNG rasters for on-screen previews.
//
// Both outputs go through Sheets, which applies a single scale factor to every
// element's position, size and font size. The layout package stays unaware of
// scale.
package render
