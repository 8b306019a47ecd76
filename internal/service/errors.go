package service

import "errors"

var (
	// ErrGeoIndexUnavailable means the radius query itself failed; the whole
	// search is reported as failed.
	ErrGeoIndexUnavailable = errors.New("geo index unavailable")

	ErrPositionNotIndexed    = errors.New("failed to index driver position")
	ErrLivenessNotRefreshed  = errors.New("failed to refresh driver liveness")
	ErrInvalidDriverID       = errors.New("invalid driver id")
	ErrUnknownEvent          = errors.New("unknown event type")
	ErrEventMissingDriverID  = errors.New("event has no driver id")
	ErrDirectiveNotPublished = errors.New("failed to publish directive")
)
