package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/common"
	"github.com/dmitrijs2005/gophstudy/internal/logging"
	"github.com/dmitrijs2005/gophstudy/internal/netx"
	"github.com/google/uuid"
)

// HTTPClient talks to the scheduling service over HTTP/JSON.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	log     logging.Logger
	now     func() time.Time
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithTimeout bounds every request. Zero disables the per-request bound.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) { h.log = l }
}

// WithClock sets the time source for the anti-cache query parameter.
func WithClock(now func() time.Time) Option {
	return func(h *HTTPClient) { h.now = now }
}

// NewHTTPClient returns a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &common.ValidationError{Field: "server", Reason: fmt.Sprintf("invalid base URL %q", baseURL)}
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{},
		timeout: 10 * time.Second,
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// envelope covers every JSON object shape the service answers with.
type envelope struct {
	Success  *bool           `json:"success"`
	Error    string          `json:"error"`
	Message  string          `json:"message"`
	Status   string          `json:"status"`
	Session  *models.Session `json:"session"`
	NextCard json.RawMessage `json:"next_card"`
	ID       *int64          `json:"id"`
	Card     *models.Card    `json:"card"`
}

func (e *envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

func (e *envelope) reason() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (c *HTTPClient) endpoint(query url.Values, segments ...string) string {
	raw := make([]string, 0, len(segments)+1)
	escaped := make([]string, 0, len(segments)+1)
	raw = append(raw, "api")
	escaped = append(escaped, "api")
	for _, s := range segments {
		raw = append(raw, s)
		escaped = append(escaped, url.PathEscape(s))
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.Join(raw, "/")
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// noCache returns the anti-cache query the service expects on selection
// endpoints. Correctness never depends on it.
func (c *HTTPClient) noCache() url.Values {
	return url.Values{"_": []string{strconv.FormatInt(c.now().UnixMilli(), 10)}}
}

// do performs one request and returns the raw body of a 2xx response.
// Everything else is classified into ErrUnavailable or *ServiceError.
func (c *HTTPClient) do(ctx context.Context, method, target string, payload any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := netx.NewJSONRequest(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "url", target, "request_id", requestID, "error", err)
		return nil, c.mapError(err)
	}
	body, err := netx.ReadBody(resp)
	if err != nil {
		return nil, c.mapError(err)
	}
	c.log.Debug(ctx, "request done",
		"method", method, "url", target, "request_id", requestID,
		"status", resp.StatusCode, "elapsed", time.Since(started))

	if !netx.IsSuccess(resp.StatusCode) {
		return nil, &ServiceError{Status: resp.StatusCode, Message: failureMessage(resp.StatusCode, body)}
	}
	return body, nil
}

func (c *HTTPClient) mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func failureMessage(status int, body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.reason() != "" {
		return env.reason()
	}
	return http.StatusText(status)
}

// call performs a request expecting a JSON object and rejects explicit
// success:false answers.
func (c *HTTPClient) call(ctx context.Context, method, target string, payload any) (*envelope, error) {
	body, err := c.do(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if env.failed() {
		return nil, &ServiceError{Status: http.StatusOK, Message: env.reason()}
	}
	return &env, nil
}

func decodeList[T any](body []byte) ([]T, error) {
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return out, nil
}

func decodeCard(raw json.RawMessage) (*models.Card, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var card models.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("%w: next_card: %v", ErrProtocol, err)
	}
	return &card, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	env, err := c.call(ctx, http.MethodGet, c.endpoint(nil, "health"), nil)
	if err != nil {
		return err
	}
	if !strings.EqualFold(env.Status, "ok") {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, deckID, userID, name string) (*models.Session, error) {
	payload := struct {
		Deck string `json:"deck"`
		User string `json:"user"`
		Name string `json:"name,omitempty"`
	}{deckID, userID, name}

	env, err := c.call(ctx, http.MethodPost, c.endpoint(nil, "sessions"), payload)
	if err != nil {
		return nil, err
	}
	if env.Session == nil || env.Session.ID == "" {
		return nil, fmt.Errorf("%w: session missing", ErrProtocol)
	}
	return env.Session, nil
}

func (c *HTTPClient) EndSession(ctx context.Context, sessionID string) error {
	_, err := c.call(ctx, http.MethodPost, c.endpoint(nil, "sessions", sessionID, "end"), nil)
	return err
}

func (c *HTTPClient) ListSessions(ctx context.Context, userID, deckID string) ([]models.Session, error) {
	q := url.Values{"user": []string{userID}}
	if deckID != "" {
		q.Set("deck", deckID)
	}
	body, err := c.do(ctx, http.MethodGet, c.endpoint(q, "sessions"), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Session](body)
}

func (c *HTTPClient) FetchNextCard(ctx context.Context, deckID, userID string) (*models.Card, error) {
	env, err := c.call(ctx, http.MethodPost, c.endpoint(c.noCache(), "next_card", deckID, userID), nil)
	if err != nil {
		return nil, err
	}
	card, err := decodeCard(env.NextCard)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: next_card missing", ErrProtocol)
	}
	return card, nil
}

func (c *HTTPClient) SubmitReview(ctx context.Context, deckID, userID string, cardID int64, rating models.Rating, sessionID string) (*models.Card, error) {
	payload := struct {
		ID        int64         `json:"id"`
		Rating    models.Rating `json:"rating"`
		SessionID string        `json:"session_id,omitempty"`
	}{cardID, rating, sessionID}

	env, err := c.call(ctx, http.MethodPost, c.endpoint(c.noCache(), "review", deckID, userID), payload)
	if err != nil {
		return nil, err
	}
	return decodeCard(env.NextCard)
}

func (c *HTTPClient) ListDecks(ctx context.Context) ([]models.Deck, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "decks"), nil)
	if err != nil {
		return nil, err
	}
	names, err := decodeList[string](body)
	if err != nil {
		return nil, err
	}
	decks := make([]models.Deck, 0, len(names))
	for _, n := range names {
		decks = append(decks, models.Deck{Name: n})
	}
	return decks, nil
}

func (c *HTTPClient) CreateDeck(ctx context.Context, name string) error {
	payload := struct {
		Deck string `json:"deck"`
	}{name}
	_, err := c.call(ctx, http.MethodPost, c.endpoint(nil, "decks"), payload)
	return err
}

func (c *HTTPClient) ListCards(ctx context.Context, deckID string) ([]models.Card, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "cards", deckID), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Card](body)
}

func (c *HTTPClient) AddCard(ctx context.Context, deckID string, in models.CardInput) (int64, error) {
	env, err := c.call(ctx, http.MethodPost, c.endpoint(nil, "cards", deckID), in)
	if err != nil {
		return 0, err
	}
	if env.ID == nil {
		return 0, fmt.Errorf("%w: id missing", ErrProtocol)
	}
	return *env.ID, nil
}

func (c *HTTPClient) UpdateCard(ctx context.Context, deckID string, cardID int64, in models.CardInput) (*models.Card, error) {
	env, err := c.call(ctx, http.MethodPut, c.endpoint(nil, "cards", deckID, strconv.FormatInt(cardID, 10)), in)
	if err != nil {
		return nil, err
	}
	if env.Card == nil {
		return nil, fmt.Errorf("%w: card missing", ErrProtocol)
	}
	return env.Card, nil
}

func (c *HTTPClient) DeleteCard(ctx context.Context, deckID string, cardID int64) error {
	_, err := c.call(ctx, http.MethodDelete, c.endpoint(nil, "cards", deckID, strconv.FormatInt(cardID, 10)), nil)
	return err
}

// Stats returns the rendered statistics artifact (a PNG image).
func (c *HTTPClient) Stats(ctx context.Context, q models.StatsQuery) ([]byte, error) {
	if err := common.Validate(q); err != nil {
		return nil, err
	}
	query := url.Values{"user": []string{q.UserID}}
	if q.DeckID != "" {
		query.Set("deck", q.DeckID)
	}
	if q.SessionID != "" {
		query.Set("session", q.SessionID)
	}
	return c.do(ctx, http.MethodGet, c.endpoint(query, "stats", string(q.Kind)), nil)
}
