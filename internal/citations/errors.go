package citations

import (
	"errors"
	"fmt"
)

// Kind classifies reconciliation failures.
type Kind string

const (
	KindMissingDocument           Kind = "missing_document"
	KindMalformedArchiveURL       Kind = "malformed_archive_url"
	KindSelectionCountMismatch    Kind = "selection_count_mismatch"
	KindSelectionDOIMismatch      Kind = "selection_doi_mismatch"
	KindSelectionIndexOutOfRange  Kind = "selection_index_out_of_range"
	KindUpstreamResolutionFailure Kind = "upstream_resolution_failure"
)

var (
	ErrMissingDocument           = errors.New("citations: article has no content")
	ErrMalformedArchiveURL       = errors.New("citations: malformed archive url")
	ErrSelectionCountMismatch    = errors.New("citations: selection count does not match citations")
	ErrSelectionDOIMismatch      = errors.New("citations: selection doi does not match citation")
	ErrSelectionIndexOutOfRange  = errors.New("citations: selection index out of range")
	ErrUpstreamResolutionFailure = errors.New("citations: upstream resolution failed")
)

var sentinels = map[Kind]error{
	KindMissingDocument:           ErrMissingDocument,
	KindMalformedArchiveURL:       ErrMalformedArchiveURL,
	KindSelectionCountMismatch:    ErrSelectionCountMismatch,
	KindSelectionDOIMismatch:      ErrSelectionDOIMismatch,
	KindSelectionIndexOutOfRange:  ErrSelectionIndexOutOfRange,
	KindUpstreamResolutionFailure: ErrUpstreamResolutionFailure,
}

const (
	opPresent  = "citations.present"
	opApply    = "citations.apply"
	opValidate = "citations.validate"
	opRewrite  = "citations.rewrite"
	opResolve  = "citations.resolve"
)

// Error carries the failure kind and the operation that detected it.
type Error struct {
	kind      Kind
	operation string
	err       error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.Code()
	}
	return fmt.Sprintf("%s: %v", e.Code(), e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches the sentinel error of the same kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.kind] == target
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Code returns "<operation>.<kind>".
func (e *Error) Code() string {
	return fmt.Sprintf("%s.%s", e.operation, e.kind)
}

func newError(operation string, kind Kind, cause error) error {
	return &Error{kind: kind, operation: operation, err: cause}
}

// reoperate re-labels a reconciliation error with the outer operation.
func reoperate(operation string, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return &Error{kind: typed.kind, operation: operation, err: typed.err}
	}
	return err
}

// KindOf extracts the kind from err, or "" when err is not a reconciliation error.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.kind
	}
	return ""
}
