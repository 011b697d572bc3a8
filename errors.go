package hub75 // import "github.com/ardnew/hub75"

import (
	"errors"

	"github.com/ardnew/hub75/descriptor"
	"github.com/ardnew/hub75/geometry"
)

// ErrHardwareFail is returned by New when the underlying StreamEngine's
// Setup or Start fails.
var ErrHardwareFail = errors.New("hub75: stream engine setup failed")

// ErrInvalidConfig, ErrOutOfMemory, and ErrRefreshUnachievable are the same
// sentinel values returned by geometry.New and descriptor.Plan, re-exported
// so callers can errors.Is against the hub75 package directly.
var (
	ErrInvalidConfig       = geometry.ErrInvalidConfig
	ErrOutOfMemory         = descriptor.ErrOutOfMemory
	ErrRefreshUnachievable = descriptor.ErrRefreshUnachievable
)
