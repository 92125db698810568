package domain

import "errors"

// Domain errors
var (
	ErrReportingDisabled  = errors.New("reporting disabled: server id, password or url not set")
	ErrRankSourceDisabled = errors.New("rank source disabled")
	ErrInvalidDescriptor  = errors.New("invalid rank source descriptor")
	ErrRankNotFound       = errors.New("rank not found for identity")
	ErrLoopStopped        = errors.New("simulation loop stopped")
	ErrInvalidRequest     = errors.New("invalid request")
)

// IsSoftError checks if an error only disables a single piece of the pipeline
// rather than signaling a failure worth surfacing.
func IsSoftError(err error) bool {
	return errors.Is(err, ErrReportingDisabled) ||
		errors.Is(err, ErrRankSourceDisabled) ||
		errors.Is(err, ErrRankNotFound)
}
