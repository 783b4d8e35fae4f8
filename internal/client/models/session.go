package models

import "time"

// Session is a bounded study run against one deck by one user.
//
// At most one Session is active per client at a time; that invariant is
// owned by the session controller, not by this type.
type Session struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DeckID       string     `json:"deck"`
	UserID       string     `json:"user"`
	StartTime    Timestamp  `json:"start_time"`
	EndTime      *Timestamp `json:"end_time,omitempty"`
	Duration     float64    `json:"duration"`
	CardsStudied int        `json:"cards_studied"`
	ReviewsCount int        `json:"reviews_count"`
	SuccessRate  float64    `json:"success_rate"`
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool {
	return s != nil && (s.EndTime == nil || s.EndTime.IsZero())
}

// Elapsed returns the wall-clock time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s == nil || s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil && !s.EndTime.IsZero() {
		return s.EndTime.Sub(s.StartTime.Time)
	}
	return now.Sub(s.StartTime.Time)
}

// StartSessionRequest is validated locally before a session is created.
type StartSessionRequest struct {
	DeckID string `validate:"required"`
	UserID string `validate:"required"`
	Name   string `validate:"max=100"`
}
