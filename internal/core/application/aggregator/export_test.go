package aggregator

import "time"

// SetClock replaces the time source of the service.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
