// Package media renders previews of selected photos and classifies media
// files for the indexer.
//
// Previews are JPEGs written into the temp directory and registered with the
// janitor, which removes them once they go unused. When libvips is
// initialized, decode-time shrinking is used; otherwise images are opened
// with the imaging package and constrained before resizing so very large
// files cannot exhaust memory.
package media
