// Package models defines client-side data models used by the gophstudy CLI.
package models

import "time"

// Deck is a named collection of cards. The name doubles as its identifier.
type Deck struct {
	Name string `json:"name"`
}

// CardStats carries scheduling hints returned alongside a card.
type CardStats struct {
	NextInterval float64 `json:"next_interval"`
	PomodoroTime int     `json:"pomodoro_time"`
	SessionID    string  `json:"session_id,omitempty"`
}

// Card is a two-sided flashcard as delivered by the scheduling service.
// Images are data URIs and are optional.
type Card struct {
	ID          int64      `json:"id"`
	Front       string     `json:"front"`
	Back        string     `json:"back"`
	FrontImage  string     `json:"frontImage,omitempty"`
	BackImage   string     `json:"backImage,omitempty"`
	Type        string     `json:"type,omitempty"`
	LastReview  *Timestamp `json:"last_review,omitempty"`
	ReviewCount int        `json:"review_count,omitempty"`
	IsMature    bool       `json:"is_mature,omitempty"`
	Stats       *CardStats `json:"stats,omitempty"`
}

// CardInput is the payload for creating or editing a card.
type CardInput struct {
	Front      string `json:"front" validate:"required_without=Back"`
	Back       string `json:"back" validate:"required_without=Front"`
	FrontImage string `json:"frontImage,omitempty" validate:"omitempty,datauri"`
	BackImage  string `json:"backImage,omitempty" validate:"omitempty,datauri"`
	Type       string `json:"type"`
}

// DefaultCardType is used when a card is created without an explicit type.
const DefaultCardType = "Basic"

// ReviewCard is the card currently presented in a review, plus its UI state.
type ReviewCard struct {
	Card     Card
	Revealed bool
}

// ReviewRecord is a locally journaled rating submission.
type ReviewRecord struct {
	ID         string
	DeckID     string
	SessionID  string
	CardID     int64
	Rating     Rating
	ReviewedAt time.Time
}
