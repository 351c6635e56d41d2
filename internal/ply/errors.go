package ply

import "errors"

// Sentinel errors for the failure classes callers branch on. They are wrapped
// with file context by the codec, so match with errors.Is rather than
// equality.
var (
	// ErrNotFound reports that the source file does not exist.
	ErrNotFound = errors.New("point cloud file not found")

	// ErrFormat reports a malformed header: no end_header terminator within
	// bounds, or a missing or unparseable element vertex declaration.
	ErrFormat = errors.New("malformed point cloud header")

	// ErrTruncated reports a binary body shorter than the vertex count
	// declared in the header.
	ErrTruncated = errors.New("truncated point cloud body")

	// ErrEmptyCloud reports a file whose header declares zero vertices.
	ErrEmptyCloud = errors.New("point cloud contains no vertices")
)
