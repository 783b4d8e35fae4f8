package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	drainHost(ctx context.Context)

	Decks(ctx context.Context) error
	Use(ctx context.Context, name string) error
	NewDeck(ctx context.Context) error
	Cards(ctx context.Context) error
	AddCard(ctx context.Context) error
	DeleteCard(ctx context.Context, id string) error

	Study(ctx context.Context) error
	Reveal(ctx context.Context) error
	Rate(ctx context.Context, value string) error
	Submit(ctx context.Context) error
	Timer(ctx context.Context, action string) error
	End(ctx context.Context) error

	Sessions(ctx context.Context) error
	History(ctx context.Context) error
	Stats(ctx context.Context, args []string) error
	View(ctx context.Context, name string) error

	// Exit reports whether the REPL may stop.
	Exit(ctx context.Context) bool
}

const helpText = `Available commands:
  decks                      list decks
  use <deck>                 select the working deck
  newdeck                    create a deck
  cards                      list cards of the working deck
  addcard                    add a card to the working deck
  delcard <id>               delete a card
  study                      start a study session
  show | reveal              show the back of the card
  rate <0-10>                set the rating (0 hardest, 10 easiest)
  submit                     submit the rating and get the next card
  timer [pause|resume|reset] control the countdown
  end                        end the study session
  sessions                   list past sessions
  history                    ratings given in the last session
  stats [user|deck|session] [file]  save a statistics chart
  view <decks|add|review|stats|manage>
  exit | quit                leave the program`

// runREPL starts a simple read–eval–print loop for the gophstudy CLI.
//
// Host commands are drained before every prompt. The first token of a line
// is the command; the rest are its arguments. Errors returned by command
// handlers are ignored here; handlers report their own errors. The loop
// exits on EOF or when Exit allows it.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		a.drainHost(ctx)

		printlnFn(fmt.Sprintf("study %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) > 0 {
			if stop := dispatch(ctx, a, parts[0], parts[1:]); stop {
				return
			}
		}

		if err != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) (stop bool) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "help":
		printlnFn(helpText)

	case "decks":
		_ = a.Decks(ctx)

	case "use":
		if arg == "" {
			printlnFn("Usage: use <deck>")
			return false
		}
		_ = a.Use(ctx, strings.Join(args, " "))

	case "newdeck":
		_ = a.NewDeck(ctx)

	case "cards":
		_ = a.Cards(ctx)

	case "addcard":
		_ = a.AddCard(ctx)

	case "delcard":
		if arg == "" {
			printlnFn("Usage: delcard <id>")
			return false
		}
		_ = a.DeleteCard(ctx, arg)

	case "study":
		_ = a.Study(ctx)

	case "show", "reveal":
		_ = a.Reveal(ctx)

	case "rate":
		if arg == "" {
			printlnFn("Usage: rate <0-10>")
			return false
		}
		_ = a.Rate(ctx, arg)

	case "submit":
		_ = a.Submit(ctx)

	case "timer":
		_ = a.Timer(ctx, arg)

	case "end":
		_ = a.End(ctx)

	case "sessions":
		_ = a.Sessions(ctx)

	case "history":
		_ = a.History(ctx)

	case "stats":
		_ = a.Stats(ctx, args)

	case "view":
		if arg == "" {
			printlnFn("Usage: view <decks|add|review|stats|manage>")
			return false
		}
		_ = a.View(ctx, arg)

	case "exit", "quit":
		if a.Exit(ctx) {
			printlnFn("Bye!")
			return true
		}

	default:
		printlnFn("Unknown command:", cmd)
	}
	return false
}
