package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method    string
	Path      string
	RawPath   string
	Query     map[string][]string
	Body      string
	RequestID string
}

// fakeService answers every request with the handler registered for
// "METHOD /path" and records what it saw.
type fakeService struct {
	mu       sync.Mutex
	requests []recorded
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeService(t *testing.T) (*fakeService, *HTTPClient) {
	t.Helper()
	fs := &fakeService{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL,
		WithTimeout(2*time.Second),
		WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_123) }),
	)
	require.NoError(t, err)
	return fs, c
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method:    r.Method,
		Path:      r.URL.Path,
		RawPath:   r.URL.EscapedPath(),
		Query:     r.URL.Query(),
		Body:      string(body),
		RequestID: r.Header.Get(common.RequestIDHeaderName),
	})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"route not found"}`))
		return
	}
	h(w, r)
}

func (f *fakeService) on(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeService) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("localhost")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateSession_SendsBodyAndDecodes(t *testing.T) {
	fs, c := newFakeService(t)
	fs.on("POST /api/sessions", 200, `{"success":true,"session":{"id":"s-1","name":"Evening","deck":"Spanish","user":"default","start_time":"2024-05-01T18:30:00.5"}}`)

	s, err := c.CreateSession(context.Background(), "Spanish", "default", "Evening")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
	assert.True(t, s.Active())

	got := fs.last()
	assert.JSONEq(t, `{"deck":"Spanish","user":"default","name":"Evening"}`, got.Body)
	_, err = uuid.Parse(got.RequestID)
	assert.NoError(t, err, "X-Request-ID must be a uuid")
}

func TestCreateSession_EmptyDeckIsServiceError(t *testing.T) {
	fs, c := newFakeService(t)
	fs.on("POST /api/sessions", 400, `{"error":"This deck has no cards. Please add cards before studying."}`)

	_, err := c.CreateSession(context.Background(), "Empty", "default", "")

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Status)
	assert.False(t, se.Fatal())
	assert.False(t, IsFatal(err))
	assert.Equal(t, "This deck has no cards. Please add some cards before studying.", UserMessage(err))
}

func TestCreateSession_SuccessWithoutSessionIsProtocolError(t *testing.T) {
	fs, c := newFakeService(t)
	fs.on("POST /api/sessions", 200, `{"success":true}`)

	_, err := c.CreateSession(context.Background(), "Spanish", "default", "")
	require.ErrorIs(t, err, ErrProtocol)
	assert.True(t, IsFatal(err))
}

func TestFetchNextCard_AntiCacheAndEscaping(t *testing.T) {
	fs, c := newFakeService(t)
	fs.on("POST /api/next_card/Spanish Verbs/default", 200,
		`{"success":true,"next_card":{"id":12,"front":"hablar","back":"to speak","stats":{"next_interval":2.5,"pomodoro_time":25}}}`)

	card, err := c.FetchNextCard(context.Background(), "Spanish Verbs", "default")
	require.NoError(t, err)
	assert.Equal(t, int64(12), card.ID)
	assert.Equal(t, "to speak", card.Back)
	require.NotNil(t, card.Stats)
	assert.Equal(t, 25, card.Stats.PomodoroTime)

	got := fs.last()
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/next_card/Spanish%20Verbs/default", got.RawPath)
	assert.Equal(t, []string{"1700000000123"}, got.Query["_"])
}

func TestFetchNextCard_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name: "missing next_card", status: 200, body: `{"success":true}`,
			check: func(t *testing.T, err error) { require.ErrorIs(t, err, ErrProtocol) },
		},
		{
			name: "malformed next_card", status: 200, body: `{"success":true,"next_card":"oops"}`,
			check: func(t *testing.T, err error) { require.ErrorIs(t, err, ErrProtocol) },
		},
		{
			name: "not json", status: 200, body: `<html>`,
			check: func(t *testing.T, err error) { require.ErrorIs(t, err, ErrProtocol) },
		},
		{
			name: "nothing scheduled", status: 200, body: `{"success":false,"error":"No cards available for study at this time."}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsNoMoreCards(err))
				assert.False(t, IsFatal(err))
			},
		},
		{
			name: "server failure", status: 500, body: `{"success":false,"error":"Error selecting next card: boom"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsFatal(err))
				assert.Equal(t, "Error selecting next card: boom", UserMessage(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, c := newFakeService(t)
			fs.on("POST /api/next_card/Spanish/default", tt.status, tt.body)

			card, err := c.FetchNextCard(context.Background(), "Spanish", "default")
			require.Error(t, err)
			assert.Nil(t, card)
			tt.check(t, err)
		})
	}
}

func TestSubmitReview(t *testing.T) {
	fs, c := newFakeService(t)
	fs.on("POST /api/review/Spanish/default", 200, `{"success":true,"next_card":{"id":13,"front":"comer","back":"to eat"}}`)

	next, err := c.SubmitReview(context.Background(), "Spanish", "default", 12, 7, "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(13), next.ID)
	assert.JSONEq(t, `{"id":12,"rating":7,"session_id":"s-1"}`, fs.last().Body)
	assert.NotEmpty(t, fs.last().Query["_"])
}

func TestSubmitReview_NoMoreCards(t *testing.T) {
	for _, body := range []string{
		`{"success":true,"error":"No more cards available for review","next_card":null}`,
		`{"success":true}`,
	} {
		fs, c := newFakeService(t)
		fs.on("POST /api/review/Spanish/default", 200, body)

		next, err := c.SubmitReview(context.Background(), "Spanish", "default", 12, 10, "")
		require.NoError(t, err)
		assert.Nil(t, next)
		assert.JSONEq(t, `{"id":12,"rating":10}`, fs.last().Body)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url)
	require.NoError(t, err)

	_, err = c.FetchNextCard(context.Background(), "Spanish", "default")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, IsFatal(err))
	assert.Contains(t, UserMessage(err), "Cannot reach the study service")
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c, err := NewHTTPClient(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	err = c.EndSession(context.Background(), "s-1")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDeckAndCardEndpoints(t *testing.T) {
	fs, c := newFakeService(t)
	ctx := context.Background()

	fs.on("GET /api/health", 200, `{"status":"ok","service":"running"}`)
	require.NoError(t, c.Ping(ctx))

	fs.on("POST /api/decks", 200, `{"success":true,"message":"Deck \"Spanish\" created successfully"}`)
	require.NoError(t, c.CreateDeck(ctx, "Spanish"))
	assert.JSONEq(t, `{"deck":"Spanish"}`, fs.last().Body)

	fs.on("GET /api/decks", 200, `["French","Spanish"]`)
	decks, err := c.ListDecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Deck{{Name: "French"}, {Name: "Spanish"}}, decks)

	fs.on("POST /api/cards/Spanish", 200, `{"success":true,"id":41}`)
	id, err := c.AddCard(ctx, "Spanish", models.CardInput{Front: "hola", Back: "hello", Type: models.DefaultCardType})
	require.NoError(t, err)
	assert.Equal(t, int64(41), id)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fs.last().Body), &sent))
	assert.Equal(t, "hola", sent["front"])

	fs.on("GET /api/cards/Spanish", 200, `[{"id":41,"front":"hola","back":"hello","last_review":"2024-05-01T10:00:00","review_count":3}]`)
	cards, err := c.ListCards(ctx, "Spanish")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, 3, cards[0].ReviewCount)
	require.NotNil(t, cards[0].LastReview)

	fs.on("PUT /api/cards/Spanish/41", 200, `{"success":true,"card":{"id":41,"front":"hola!","back":"hello"}}`)
	card, err := c.UpdateCard(ctx, "Spanish", 41, models.CardInput{Front: "hola!", Back: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hola!", card.Front)

	fs.on("DELETE /api/cards/Spanish/41", 200, `{"success":true}`)
	require.NoError(t, c.DeleteCard(ctx, "Spanish", 41))

	fs.on("POST /api/decks", 409, `{"error":"Deck already exists"}`)
	err = c.CreateDeck(ctx, "Spanish")
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Deck already exists", UserMessage(err))
}

func TestSessionsAndStats(t *testing.T) {
	fs, c := newFakeService(t)
	ctx := context.Background()

	fs.on("GET /api/sessions", 200, `[{"id":"a","deck":"Spanish","start_time":"2024-05-01T10:00:00"}]`)
	sessions, err := c.ListSessions(ctx, "default", "Spanish")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"Spanish"}, fs.last().Query["deck"])
	assert.Equal(t, []string{"default"}, fs.last().Query["user"])

	fs.on("POST /api/sessions/a/end", 200, `{"success":true,"session":{"id":"a"}}`)
	require.NoError(t, c.EndSession(ctx, "a"))

	fs.on("GET /api/stats/session", 200, "\x89PNG")
	img, err := c.Stats(ctx, models.StatsQuery{Kind: models.StatsSession, UserID: "default", SessionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(img))
	assert.Equal(t, []string{"a"}, fs.last().Query["session"])

	_, err = c.Stats(ctx, models.StatsQuery{Kind: models.StatsDeck, UserID: "default"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestPing_NotOK(t *testing.T) {
	fs, c := newFakeService(t)
	fs.on("GET /api/health", 200, `{"status":"degraded"}`)

	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
	require.NoError(t, c.Close())
}
