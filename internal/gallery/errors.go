package gallery

import (
	"errors"
	"fmt"

	"gallery-viewer/internal/media"
)

// Kind classifies operation failures.
type Kind int

const (
	InvalidRoot Kind = iota + 1
	StoreUnavailable
	DecodeFailed
	EncodeFailed
	IoFailure
	NotFound
	UnsupportedFormat
)

func (k Kind) String() string {
	switch k {
	case InvalidRoot:
		return "invalid_root"
	case StoreUnavailable:
		return "store_unavailable"
	case DecodeFailed:
		return "decode_failed"
	case EncodeFailed:
		return "encode_failed"
	case IoFailure:
		return "io_failure"
	case NotFound:
		return "not_found"
	case UnsupportedFormat:
		return "unsupported_format"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidRoot       = &Error{Kind: InvalidRoot}
	ErrStoreUnavailable  = &Error{Kind: StoreUnavailable}
	ErrDecodeFailed      = &Error{Kind: DecodeFailed}
	ErrEncodeFailed      = &Error{Kind: EncodeFailed}
	ErrIoFailure         = &Error{Kind: IoFailure}
	ErrNotFound          = &Error{Kind: NotFound}
	ErrUnsupportedFormat = &Error{Kind: UnsupportedFormat}
)

// Error is the error type returned by Service operations.
type Error struct {
	Kind Kind
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case InvalidRoot:
		msg = fmt.Sprintf("%s is not a valid directory", e.Path)
	case NotFound:
		msg = fmt.Sprintf("%s is not a file", e.Path)
	case UnsupportedFormat:
		msg = fmt.Sprintf("unsupported image format: %s", e.Path)
	case StoreUnavailable:
		msg = "thumbnail cache unavailable"
	case DecodeFailed:
		msg = fmt.Sprintf("failed to decode %s", e.Path)
	case EncodeFailed:
		msg = fmt.Sprintf("failed to encode thumbnail for %s", e.Path)
	default:
		msg = fmt.Sprintf("i/o failure on %s", e.Path)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Op == "" && t.Err == nil
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// fromGenerateError maps a generator failure onto an error kind.
func fromGenerateError(op string, err error) *Error {
	var genErr *media.GenerateError
	if !errors.As(err, &genErr) {
		return &Error{Kind: DecodeFailed, Op: op, Err: err}
	}
	kind := DecodeFailed
	switch genErr.Stage {
	case media.StageEncode:
		kind = EncodeFailed
	case media.StageIO:
		kind = IoFailure
	}
	return &Error{Kind: kind, Path: genErr.Path, Op: op, Err: genErr.Err}
}
