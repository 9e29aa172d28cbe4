package model

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is matched by every *LimitError.
var ErrLimitExceeded = errors.New("protocol limit exceeded")

// Limits are the protocol ceilings a compiled model must fit in.
type Limits struct {
	MaxParts int
	MaxAnims int
}

// LimitError reports which ceiling was hit and by how much.
type LimitError struct {
	What    string
	Subject string
	Limit   int
	Got     int
}

func (e *LimitError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: too many %s (%d, max %d)", e.Subject, e.What, e.Got, e.Limit)
	}
	return fmt.Sprintf("too many %s (%d, max %d)", e.What, e.Got, e.Limit)
}

func (e *LimitError) Unwrap() error {
	return ErrLimitExceeded
}

// CheckLimits verifies part and per-part animation counts.
func CheckLimits(parts []Part, lim Limits) error {
	if lim.MaxParts > 0 && len(parts) > lim.MaxParts {
		return &LimitError{What: "parts", Limit: lim.MaxParts, Got: len(parts)}
	}
	if lim.MaxAnims <= 0 {
		return nil
	}
	for i := range parts {
		if n := len(parts[i].Anims); n > lim.MaxAnims {
			return &LimitError{
				What:    "animations",
				Subject: fmt.Sprintf("part %d", i),
				Limit:   lim.MaxAnims,
				Got:     n,
			}
		}
	}
	return nil
}
