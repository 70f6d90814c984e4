package assets

// errors.go defines the closed, numerically-stable failure taxonomy that
// flows through Unavailable payloads. These integers are part of the wire
// contract (anything observing a cell across a process boundary depends on
// their values never shifting) so new kinds must
// only ever be appended.
//
// © 2025 3l14 engine authors. MIT License.

import "fmt"

// ErrorKind is the closed set of reasons a cell can resolve to Unavailable.
// Never returned as a Go error from a handle; always carried inside the
// payload itself.
type ErrorKind int32

const (
	// ErrShutdown: the cache is no longer accepting loads.
	ErrShutdown ErrorKind = iota + 1
	// ErrMismatchedAssetType: a handle of type T was requested for a key
	// whose asset-type field names a different type.
	ErrMismatchedAssetType
	// ErrLifecyclerNotRegistered: no lifecycler handles this asset type.
	ErrLifecyclerNotRegistered
	// ErrFetch: the backing file could not be opened or read.
	ErrFetch
	// ErrParse: the lifecycler returned an error while decoding.
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrShutdown:
		return "Shutdown"
	case ErrMismatchedAssetType:
		return "MismatchedAssetType"
	case ErrLifecyclerNotRegistered:
		return "LifecyclerNotRegistered"
	case ErrFetch:
		return "Fetch"
	case ErrParse:
		return "Parse"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int32(k))
	}
}
