// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import "fmt"

// ChunkError reports that the request for one chunk failed. Annotation is
// all-or-nothing, so a ChunkError means no result was produced.
type ChunkError struct {
	// Index is the 1-based position of the failing chunk.
	Index int
	// Total is the number of chunks in the document.
	Total int
	// Err is the underlying backend or decoding error.
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("failed to process chunk %d/%d: %v", e.Index, e.Total, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
