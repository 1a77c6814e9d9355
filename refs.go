package mdembed

import "github.com/alnah/go-mdembed/internal/pipeline"

// MoveDataImages rewrites inline data-URL images as reference-style images
// and gathers the data URLs as definitions at the end of the document:
//
//	![Chart](data:image/jpeg;base64,...)  ->  ![Chart][dataimg-chart]
//
// Identical data URLs share a definition and running it again is safe.
// Returns the new Markdown and how many images were moved.
func MoveDataImages(markdown string) (string, int) {
	return pipeline.MoveDataImages(markdown)
}

// DataRefsMarker is the comment line that opens the definitions block
// written by MoveDataImages.
const DataRefsMarker = pipeline.DataRefsMarker
