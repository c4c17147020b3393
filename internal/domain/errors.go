package domain

import "errors"

// Caller-fixable errors. These map to HTTP 400.
var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidProvider is returned when the requested generator does not exist
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidImage is returned when the upload is empty or not a decodable image
	ErrInvalidImage = errors.New("invalid image")

	// ErrMissingCredential is returned when a hosted provider has no API token configured
	ErrMissingCredential = errors.New("provider credential not configured")
)

// Internal errors. These map to HTTP 500.
var (
	// ErrProviderFailure is returned when an image generator call fails
	ErrProviderFailure = errors.New("failed to generate image")

	// ErrDetectorFailure is returned when the object detector call fails
	ErrDetectorFailure = errors.New("detection failed")

	// ErrStorageFailure is returned when an image cannot be written to disk
	ErrStorageFailure = errors.New("failed to save image")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// IsClientError reports whether err was caused by the caller and should be
// answered with a client error status.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidProvider) ||
		errors.Is(err, ErrInvalidImage) ||
		errors.Is(err, ErrMissingCredential)
}
