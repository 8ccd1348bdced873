package session

import (
	"time"
)

type Timed interface {
	// T returns the current time in whole seconds.
	T() int64
}

// Clock is the wall clock with a 1 second resolution.
type Clock struct{}

// T returns the number of seconds elapsed since the Unix epoch.
func (self Clock) T() int64 {
	return time.Now().Unix()
}

var _ Timed = Clock{}

// TimedFunc adapts a function to the Timed interface.
type TimedFunc func() int64

// T calls self.
func (self TimedFunc) T() int64 {
	return self()
}

var _ Timed = TimedFunc(nil)
