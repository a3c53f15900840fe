// Package errs classifies the failures proxymancer reports so that batch
// commands can decide between logging and aborting
package errs

import (
	"errors"
	"fmt"
)

// Kind is a coarse-grained categorization for errors
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindAmbiguous       Kind = "ambiguous"
	KindDownload        Kind = "download"
	KindUnreadableImage Kind = "unreadable_image"
	KindLayout          Kind = "layout"
	KindInvalidInput    Kind = "invalid_input"
)

// OpError wraps an underlying error with operation context and a kind
type OpError struct {
	Op   string
	Kind Kind
	Path string // Optional: file path or URL involved
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// E builds an OpError
func E(op string, kind Kind, path string, err error) error {
	return &OpError{Op: op, Kind: kind, Path: path, Err: err}
}

// IsKind reports whether any OpError in err's chain has the given kind
func IsKind(err error, kind Kind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first OpError in err's chain, or ""
func KindOf(err error) Kind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
