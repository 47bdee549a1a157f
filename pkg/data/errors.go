package data

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrEmptyTable       = errors.New("table has no rows")
)

// FetchError reports a failure to retrieve or parse a source.
type FetchError struct {
	Source  string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Source, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewFetchError(source, message string, err error) *FetchError {
	return &FetchError{Source: source, Message: message, Err: err}
}
