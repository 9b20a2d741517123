package observability

import "go.uber.org/zap"

// Field constructors re-exported so call sites outside the http layer do not
// need a direct zap import.
//
//nolint:gochecknoglobals // Aliases, not mutable state
var (
	String   = zap.String
	Int      = zap.Int
	Bool     = zap.Bool
	Float64  = zap.Float64
	Duration = zap.Duration
	Error    = zap.Error
)
