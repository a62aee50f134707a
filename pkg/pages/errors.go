package pages

import (
	"errors"
	"fmt"

	"github.com/lirany1/cucumber-html-report/pkg/config"
)

var (
	// ErrNotGenerated is returned by WebPage before GeneratePage has run
	ErrNotGenerated = errors.New("page has not been generated")
	// ErrUnknownSubject is returned when a report page is built for a subject missing from the report
	ErrUnknownSubject = errors.New("subject is not part of the report")
	// ErrRenderFailure wraps template engine errors
	ErrRenderFailure = errors.New("failed to render page")
	// ErrInvalidConfiguration is the config package sentinel, re-exported for callers of this package
	ErrInvalidConfiguration = config.ErrInvalidConfiguration
)

// PageError ties an error to the page it occurred on
type PageError struct {
	Slug string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.Slug, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

func pageError(slug string, kind, cause error) error {
	if cause == nil {
		return &PageError{Slug: slug, Err: kind}
	}
	if errors.Is(cause, kind) {
		return &PageError{Slug: slug, Err: cause}
	}
	return &PageError{Slug: slug, Err: fmt.Errorf("%w: %v", kind, cause)}
}
