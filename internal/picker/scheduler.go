package picker

import "time"

// Timer is a pending delayed action.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d unless the returned Timer is stopped first.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClockScheduler schedules on the wall clock.
func ClockScheduler() Scheduler {
	return clockScheduler{}
}
