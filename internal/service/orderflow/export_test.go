package orderflow

import "time"

// SetClock replaces the clock and id generator.
func (s *Service) SetClock(now func() time.Time, newID func() string) {
	s.now = now
	s.newID = newID
}
