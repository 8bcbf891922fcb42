package submitter

import (
	"context"
	"time"
)

func (s *Service) SetClock(
	now func() time.Time, sleep func(context.Context, time.Duration) error,
) {
	s.now = now
	s.sleep = sleep
}
