package services

import (
	"time"

	"unem-umt/internal/pkg/dateutil"
)

// clock supplies the current time to services; tests replace it
type clock struct {
	now func() time.Time
}

// SetClock overrides the time source
func (c *clock) SetClock(now func() time.Time) {
	c.now = now
}

func (c *clock) timeNow() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *clock) today() time.Time {
	return dateutil.Today(c.timeNow())
}
