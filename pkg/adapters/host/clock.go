package host

import (
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/inkwell/pkg/core"
)

// Clock is the system clock shifted by a user adjustable offset.
type Clock struct {
	mu     sync.Mutex
	offset time.Duration
	now    func() time.Time
}

// NewClock creates a clock reading the system time.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Add(c.offset)
}

// SetTime moves the clock to hour:minute of the current day, seconds zeroed.
func (c *Clock) SetTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", core.ErrInvalidTime, hour, minute)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sys := c.now()
	cur := sys.Add(c.offset)
	target := time.Date(cur.Year(), cur.Month(), cur.Day(), hour, minute, 0, 0, cur.Location())
	c.offset = target.Sub(sys)
	return nil
}

var _ core.Clock = (*Clock)(nil)
