package engine

import "github.com/pkg/errors"

// ErrInvalidArgument is returned for inputs the engine refuses to coerce:
// unknown directions, undersized boards, bad winning values, malformed grids.
var ErrInvalidArgument = errors.New("invalid argument")
