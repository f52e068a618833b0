package core

import (
	"fmt"
	"strconv"
)

// ParseClockTime parses the "HH:MM" time-set input.
func ParseClockTime(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, errH := strconv.Atoi(s[:2])
	minute, errM := strconv.Atoi(s[3:])
	if errH != nil || errM != nil || s[0] == '-' || s[3] == '-' || s[0] == '+' || s[3] == '+' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}
	return hour, minute, nil
}

// SetTimeFromString sets the clock from "HH:MM". Invalid input is reported on
// the display and leaves the clock untouched.
func (s *Service) SetTimeFromString(str string) error {
	hour, minute, err := ParseClockTime(str)
	if err != nil {
		s.display.DrawStatus("Invalid")
		s.logger.Error("invalid time input", "input", str)
		return err
	}
	if s.clock == nil {
		return fmt.Errorf("no clock configured")
	}
	if err := s.clock.SetTime(hour, minute); err != nil {
		return fmt.Errorf("failed to set clock: %w", err)
	}
	s.logger.Info("time updated", "hour", hour, "minute", minute)
	return nil
}
