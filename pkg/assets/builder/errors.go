package builder

// errors.go lists the typed build-side failures (§7): invalid source path,
// no registered builder, I/O errors, and metadata errors are never silently
// swallowed.
//
// © 2025 3l14 engine authors. MIT License.

import "errors"

var (
	// ErrNoBuilder means no Builder is registered for the source's
	// extension.
	ErrNoBuilder = errors.New("builder: no builder registered for this extension")
	// ErrPathEscapesRoot means the source path canonicalizes to somewhere
	// outside SourcesRoot.
	ErrPathEscapesRoot = errors.New("builder: source path escapes sources root")
)
