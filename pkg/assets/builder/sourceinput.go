package builder

import "io"

// SourceInput is the reader a Builder consumes, mirroring the original
// engine's SourceInput wrapper around the open source file.
type SourceInput struct {
	io.Reader
	Path string // absolute path to the source file, post-canonicalization
}
