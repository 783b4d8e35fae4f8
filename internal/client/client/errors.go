package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophstudy/internal/common"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrProtocol    = errors.New("malformed service response")
)

// ServiceError is a structured failure reported by the service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error (%d): %s", e.Status, e.Message)
}

// Fatal reports a server-side failure, as opposed to a refusal the user
// can act on.
func (e *ServiceError) Fatal() bool {
	return e.Status >= http.StatusInternalServerError
}

const noCardsMessage = "This deck has no cards. Please add some cards before studying."

// IsFatal reports whether err must end an active review session.
func IsFatal(err error) bool {
	if errors.Is(err, ErrProtocol) {
		return true
	}
	var se *ServiceError
	return errors.As(err, &se) && se.Fatal()
}

// IsNoMoreCards reports whether err only says that nothing is left to study.
func IsNoMoreCards(err error) bool {
	var se *ServiceError
	if !errors.As(err, &se) {
		return false
	}
	msg := strings.ToLower(se.Message)
	return strings.Contains(msg, "no more cards") || strings.Contains(msg, "no cards available")
}

// isEmptyDeck matches the refusal to study a deck that holds no cards.
func isEmptyDeck(err error) bool {
	var se *ServiceError
	if !errors.As(err, &se) || IsNoMoreCards(err) {
		return false
	}
	return strings.Contains(strings.ToLower(se.Message), "no cards")
}

// UserMessage renders err for the terminal. Known service messages are
// translated; other service messages are shown verbatim.
func UserMessage(err error) string {
	var (
		se *ServiceError
		ve *common.ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrUnavailable):
		return "Cannot reach the study service. Check that it is running and try again."
	case errors.Is(err, ErrProtocol):
		return "The study service sent an incomplete response."
	case isEmptyDeck(err):
		return noCardsMessage
	case errors.As(err, &se):
		return se.Message
	default:
		return err.Error()
	}
}
