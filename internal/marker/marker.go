package marker

import (
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

// Marker records every signal a strategy emits so a run can be audited afterwards
type Marker interface {
	// Mark records the signal generated on the given date
	Mark(date time.Time, signal types.Signal) error
	// GetMarks returns all the recorded signals in insertion order
	GetMarks() ([]types.SignalLogEntry, error)
}
