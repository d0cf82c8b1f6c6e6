package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a required field could not be located in a payload.
	ErrNotFound = errors.New("required field not found")

	// ErrUpstreamFormat means the site changed its payload or player in a way
	// the extractor does not recognize.
	ErrUpstreamFormat = errors.New("unrecognized upstream format")

	// ErrCredentialUnavailable means the API credential could not be obtained.
	ErrCredentialUnavailable = errors.New("api credential unavailable")

	// ErrNoResults means a search matched nothing.
	ErrNoResults = errors.New("no matches")

	// ErrUnsupportedURL means no extractor handles the URL.
	ErrUnsupportedURL = errors.New("unsupported URL")
)

func notFound(field string) error {
	return fmt.Errorf("%w: unable to extract %s", ErrNotFound, field)
}
