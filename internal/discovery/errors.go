package discovery

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when a run targets a missing source.
	ErrSourceNotFound = errors.New("discovery source not found")
	// ErrSourceInactive is returned when a run targets a disabled source.
	// It also matches ErrSourceNotFound so callers may treat both alike.
	ErrSourceInactive = fmt.Errorf("%w: source is inactive", ErrSourceNotFound)
	// ErrUnsupportedSourceType is returned when no extractor is registered for a source type.
	ErrUnsupportedSourceType = errors.New("unsupported source type")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport failure")
	// ErrUnparseableResponse is returned when an API body is not valid JSON.
	ErrUnparseableResponse = errors.New("unparseable response")
	// ErrLeadNotFound is returned when a staged lead id does not exist.
	ErrLeadNotFound = errors.New("discovered lead not found")
	// ErrInvalidTransition is returned when importing or rejecting a lead that is no longer pending.
	ErrInvalidTransition = errors.New("discovered lead is not pending")
)

// TransportError wraps a failed fetch: DNS, refused connection, timeout or a non-2xx status.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}
