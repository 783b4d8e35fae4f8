package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/client"
	"github.com/dmitrijs2005/gophstudy/internal/client/config"
	"github.com/dmitrijs2005/gophstudy/internal/client/events"
	"github.com/dmitrijs2005/gophstudy/internal/client/host"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/navigation"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstudy/internal/client/review"
	"github.com/dmitrijs2005/gophstudy/internal/client/services"
	"github.com/dmitrijs2005/gophstudy/internal/client/session"
	"github.com/dmitrijs2005/gophstudy/internal/client/timer"
	"github.com/dmitrijs2005/gophstudy/internal/logging"
)

const shutdownTimeout = 3 * time.Second

type App struct {
	config   *config.Config
	log      logging.Logger
	api      client.Client
	repos    *client.Repositories
	decks    services.DeckService
	bus      *events.Bus
	sessions *session.Controller
	flow     *review.Controller
	timer    *timer.Engine
	guard    *navigation.Guard
	port     *host.CommandPort
	bridge   host.Bridge
	reader   *bufio.Reader
	out      *syncWriter
	closers  []io.Closer

	// REPL state, touched only by the REPL goroutine.
	deck        string
	view        models.View
	lastSession string
}

// NewApp opens the local database, connects the service client and wires
// the study controllers. The confirmation bridge is enabled only when stdin
// is a terminal.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	l, logCloser, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewHTTPClient(cfg.ServerURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(l),
	)
	if err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, err
	}

	a := newApp(cfg, api, client.NewRepositories(db), l, os.Stdin, os.Stdout, isTerminal(int(os.Stdin.Fd())))
	a.closers = append(a.closers, db, logCloser)
	return a, nil
}

func newApp(cfg *config.Config, api client.Client, repos *client.Repositories, l logging.Logger, in io.Reader, out io.Writer, interactive bool, timerOpts ...timer.Option) *App {
	if l == nil {
		l = logging.Nop()
	}

	a := &App{
		config: cfg,
		log:    l,
		api:    api,
		repos:  repos,
		bus:    events.NewBus(),
		port:   host.NewCommandPort(0),
		reader: bufio.NewReader(in),
		out:    &syncWriter{w: out},
		view:   models.ViewDecks,
	}

	a.decks = services.NewDeckService(api, repos.Metadata, l.With("component", "decks"))

	a.timer = timer.New(cfg.TimerDuration,
		append([]timer.Option{timer.WithInterval(cfg.TickInterval), timer.WithLogger(l.With("component", "timer"))}, timerOpts...)...)
	timer.Bind(a.timer, a.bus)
	a.timer.OnExpire(func() { a.println("Time's up!") })

	a.sessions = session.NewController(api,
		session.WithStore(repos.Metadata),
		session.WithBus(a.bus),
		session.WithLogger(l.With("component", "session")),
	)

	a.flow = review.NewController(api, a.sessions,
		review.WithBus(a.bus),
		review.WithBackoff(review.NewBackoff(cfg.FirstFetchDelay, cfg.RetryDelay)),
		review.WithJournal(repos),
		review.WithLogger(l.With("component", "review")),
	)

	if interactive {
		a.bridge = &consoleBridge{reader: a.reader, out: a.out, sessions: a.sessions}
	}
	a.guard = navigation.NewGuard(a.bridge, a.sessions, navigation.WithLogger(l.With("component", "navigation")))

	return a
}

// Port is where an embedding host enqueues its commands.
func (a *App) Port() *host.CommandPort {
	return a.port
}

// Run closes any session orphaned by a previous run, applies the initial
// deck, and serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.println("Welcome to gophstudy (type 'help' for commands)")

	if err := a.sessions.Recover(ctx); err != nil {
		a.log.Warn(ctx, "session recovery failed", "error", err)
		a.println("Could not close the session left open by a previous run:", client.UserMessage(err))
	}

	if deck, err := a.decks.CurrentDeck(ctx); err != nil {
		a.log.Warn(ctx, "load current deck failed", "error", err)
	} else {
		a.deck = deck
	}

	if id, _, err := a.repos.Metadata.Get(ctx, metadata.KeyLastSession); err == nil {
		a.lastSession = id
	}

	if a.config.InitialDeck != "" {
		if err := a.port.SetCurrentDeck(a.config.InitialDeck); err != nil {
			a.println("Error:", client.UserMessage(err))
		}
	}

	runREPL(ctx, a, a.status, a.reader)
}

// Close ends a session that is still active, then releases the client, the
// database and the log file.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.sessions.Active() {
		if err := a.sessions.End(ctx); err != nil {
			a.log.Warn(ctx, "end session on exit failed", "error", err)
		}
	}
	a.timer.Stop()
	a.port.Close()

	if err := a.api.Close(); err != nil {
		a.log.Warn(ctx, "close client failed", "error", err)
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

func (a *App) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// fail reports err to the user and the log and returns it.
func (a *App) fail(ctx context.Context, op string, err error) error {
	a.log.Warn(ctx, op+" failed", "error", err)
	a.println("Error:", client.UserMessage(err))
	return err
}

// syncWriter serializes writes from the REPL and the timer goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// String returns what was written when the target is a *bytes.Buffer.
func (s *syncWriter) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.w.(*bytes.Buffer); ok {
		return b.String()
	}
	return ""
}
