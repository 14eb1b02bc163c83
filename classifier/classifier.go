package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cadence is how often a task should be brought back to its team's attention.
type Cadence string

const (
	Immediate Cadence = "immediate"
	Daily     Cadence = "daily"
	Weekly    Cadence = "weekly"
)

// ErrUnknownCadence is returned when the predictor answers with a value outside the known cadences.
var ErrUnknownCadence = errors.New("unknown reminder cadence")

func ParseCadence(value string) (Cadence, error) {
	switch c := Cadence(strings.ToLower(strings.TrimSpace(value))); c {
	case Immediate, Daily, Weekly:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCadence, value)
}

// Classifier predicts a reminder cadence from task content.
type Classifier interface {
	Classify(ctx context.Context, description, priority string, deadline time.Time) (Cadence, error)
}

// deadlineLayout is the date format the predictor expects.
const deadlineLayout = "2006-01-02"
