package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/common"
)

// CommandType names a host request.
type CommandType string

const (
	// CmdSetView switches the client to another view.
	CmdSetView CommandType = "SET_VIEW"
	// CmdSetCurrentDeck selects the working deck.
	CmdSetCurrentDeck CommandType = "SET_CURRENT_DECK"
	// CmdOpenAddCard selects a deck and opens the add-card view.
	CmdOpenAddCard CommandType = "OPEN_ADD_CARD"
)

const defaultQueueSize = 16

var (
	ErrQueueFull  = errors.New("host command queue is full")
	ErrPortClosed = errors.New("host command port is closed")
)

// Command is one queued host request.
type Command struct {
	Type CommandType `json:"type"`
	View models.View `json:"view,omitempty"`
	Deck string      `json:"deck,omitempty"`
}

// CommandPort is a bounded queue of host commands. Enqueueing never blocks:
// when the queue is full the command is refused with ErrQueueFull.
type CommandPort struct {
	ch chan Command

	mu     sync.Mutex
	closed bool
}

func NewCommandPort(size int) *CommandPort {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &CommandPort{ch: make(chan Command, size)}
}

// Commands returns the receive side of the queue. It is closed by Close.
func (p *CommandPort) Commands() <-chan Command {
	return p.ch
}

func (p *CommandPort) SetView(v models.View) error {
	if _, err := models.ParseView(string(v)); err != nil {
		return &common.ValidationError{Field: "view", Reason: err.Error()}
	}
	return p.enqueue(Command{Type: CmdSetView, View: v})
}

func (p *CommandPort) SetCurrentDeck(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &common.ValidationError{Field: "deck", Reason: "is required"}
	}
	return p.enqueue(Command{Type: CmdSetCurrentDeck, Deck: name})
}

// Dispatch decodes a JSON host message and enqueues it.
func (p *CommandPort) Dispatch(raw []byte) error {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return fmt.Errorf("decode host message: %w", err)
	}

	switch cmd.Type {
	case CmdSetView:
		return p.SetView(cmd.View)
	case CmdSetCurrentDeck:
		return p.SetCurrentDeck(cmd.Deck)
	case CmdOpenAddCard:
		deck := strings.TrimSpace(cmd.Deck)
		if deck == "" {
			return &common.ValidationError{Field: "deck", Reason: "is required"}
		}
		return p.enqueue(Command{Type: CmdOpenAddCard, Deck: deck, View: models.ViewAdd})
	default:
		return &common.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown host command %q", cmd.Type)}
	}
}

func (p *CommandPort) enqueue(c Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	select {
	case p.ch <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the queued commands without waiting for more.
func (p *CommandPort) Pending() []Command {
	var out []Command
	for {
		select {
		case c, ok := <-p.ch:
			if !ok {
				return out
			}
			out = append(out, c)
		default:
			return out
		}
	}
}

func (p *CommandPort) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}
