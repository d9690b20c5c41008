package search

import (
	"errors"
	"fmt"
)

var ErrLoaderFailure = errors.New("loader failure")

// LoaderError wraps a failure returned, or a panic raised, by a Loader.
type LoaderError struct {
	Query string
	Page  int
	Err   error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("failed to load page %d for query %q: %s", e.Page, e.Query, e.Err)
}

func (e *LoaderError) Is(target error) bool {
	return target == ErrLoaderFailure
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}
