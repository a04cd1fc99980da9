package trail_filter

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidFilter the filter expression has a malformed shape
	ErrInvalidFilter = errors.New("invalid filter expression")

	// ErrCorruptTrail a raw record can't be resolved against the dictionary
	ErrCorruptTrail = errors.New("corrupt trail record")

	ErrTrailNotFound = errors.New("trail not found")

	ErrFieldNotFound = errors.New("field not found")
)
