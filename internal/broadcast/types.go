package broadcast

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrClosed = errors.New("broadcast closed")
	ErrEmpty  = errors.New("no value available")
)

// LaggedError is returned once by Receiver.Recv when the receiver fell behind
// the ring and Skipped values were overwritten before it could read them.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("receiver lagged, %d values skipped", e.Skipped)
}

// Stats contains broadcaster statistics.
type Stats struct {
	Capacity  int
	Receivers int
	Published uint64 // Total values accepted since creation
	Dropped   uint64 // Values published while nobody was subscribed
}
