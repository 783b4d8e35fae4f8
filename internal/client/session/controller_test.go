package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/client"
	"github.com/dmitrijs2005/gophstudy/internal/client/events"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstudy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	createCalls atomic.Int32
	endCalls    atomic.Int32

	LastDeck, LastUser, LastName string
	LastEndedID                  string

	createResp *models.Session
	createErr  error
	endErr     error
	endGate    chan struct{}
}

func (f *fakeScheduler) CreateSession(ctx context.Context, deckID, userID, name string) (*models.Session, error) {
	f.createCalls.Add(1)
	f.LastDeck, f.LastUser, f.LastName = deckID, userID, name
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := *f.createResp
	return &s, nil
}

func (f *fakeScheduler) EndSession(ctx context.Context, sessionID string) error {
	f.endCalls.Add(1)
	if f.endGate != nil {
		<-f.endGate
	}
	f.LastEndedID = sessionID
	return f.endErr
}

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func newFixture() (*Controller, *fakeScheduler, *memStore, *[]events.Event) {
	fs := &fakeScheduler{createResp: &models.Session{ID: "s-1", DeckID: "Spanish", Name: "Evening"}}
	store := newMemStore()
	bus := events.NewBus()
	var seen []events.Event
	bus.Subscribe(func(e events.Event) { seen = append(seen, e) })
	return NewController(fs, WithStore(store), WithBus(bus)), fs, store, &seen
}

func TestStart_StoresCurrentAndPublishes(t *testing.T) {
	c, fs, store, seen := newFixture()

	s, err := c.Start(context.Background(), " Spanish ", "default", "Evening")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
	assert.Equal(t, "Spanish", fs.LastDeck)

	cur := c.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "s-1", cur.ID)
	assert.True(t, c.Active())

	marker, ok, _ := store.Get(context.Background(), metadata.KeyActiveSession)
	assert.True(t, ok)
	assert.Equal(t, "s-1", marker)

	assert.Equal(t, []events.Event{{Kind: events.SessionStarted, SessionID: "s-1"}}, *seen)
}

func TestStart_MissingDeckNeverReachesNetwork(t *testing.T) {
	c, fs, _, _ := newFixture()

	_, err := c.Start(context.Background(), "  ", "default", "")

	require.ErrorIs(t, err, common.ErrValidation)
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "deckid", ve.Field)
	assert.Zero(t, fs.createCalls.Load())
	assert.Nil(t, c.Current())
}

func TestStart_EmptyDeckLeavesNoSession(t *testing.T) {
	c, fs, store, seen := newFixture()
	fs.createErr = &client.ServiceError{Status: 400, Message: "This deck has no cards. Please add cards before studying."}

	_, err := c.Start(context.Background(), "Empty", "default", "")

	require.Error(t, err)
	assert.Nil(t, c.Current())
	assert.Empty(t, store.m)
	assert.Empty(t, *seen)
}

func TestStart_FillsFieldsTheServiceOmits(t *testing.T) {
	c, fs, _, _ := newFixture()
	fs.createResp = &models.Session{ID: "s1"}

	s, err := c.Start(context.Background(), "Spanish", "default", "Evening")
	require.NoError(t, err)

	want := models.Session{ID: "s1", DeckID: "Spanish", UserID: "default", Name: "Evening"}
	assert.Equal(t, want, *s)
	assert.Equal(t, want, *c.Current())
}

func TestStart_RecoversSessionLeftByFailedEnd(t *testing.T) {
	c, fs, store, _ := newFixture()
	_, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	fs.endErr = client.ErrUnavailable
	require.Error(t, c.End(context.Background()))

	fs.endErr = nil
	fs.createResp = &models.Session{ID: "s-2", DeckID: "Spanish"}
	s, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	assert.Equal(t, "s-2", s.ID)
	assert.Equal(t, int32(2), fs.endCalls.Load())
	assert.Equal(t, "s-1", fs.LastEndedID)
	assert.Equal(t, "s-2", store.m[metadata.KeyActiveSession])
}

func TestStart_RefusedWhileStaleSessionStaysOpen(t *testing.T) {
	c, fs, store, seen := newFixture()
	require.NoError(t, store.Set(context.Background(), metadata.KeyActiveSession, "old"))
	fs.endErr = client.ErrUnavailable

	_, err := c.Start(context.Background(), "Spanish", "default", "")

	require.ErrorIs(t, err, ErrStaleSession)
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Zero(t, fs.createCalls.Load())
	assert.Nil(t, c.Current())
	assert.Equal(t, "old", store.m[metadata.KeyActiveSession])
	assert.Empty(t, *seen)

	// the refusal must not leave the controller stuck in starting
	fs.endErr = nil
	_, err = c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)
	assert.Equal(t, "s-1", store.m[metadata.KeyActiveSession])
}

func TestStart_RefusesSecondSession(t *testing.T) {
	c, fs, _, _ := newFixture()

	_, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	_, err = c.Start(context.Background(), "French", "default", "")
	require.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, int32(1), fs.createCalls.Load())
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	c, _, _, _ := newFixture()
	_, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	cur := c.Current()
	cur.ID = "mutated"
	assert.Equal(t, "s-1", c.Current().ID)
}

func TestEnd_TwiceMakesOneNetworkCall(t *testing.T) {
	c, fs, store, seen := newFixture()
	_, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	require.NoError(t, c.End(context.Background()))
	require.NoError(t, c.End(context.Background()))

	assert.Equal(t, int32(1), fs.endCalls.Load())
	assert.Equal(t, "s-1", fs.LastEndedID)
	assert.Nil(t, c.Current())
	assert.Empty(t, store.m)
	assert.Equal(t, events.SessionEnded, (*seen)[len(*seen)-1].Kind)
}

func TestEnd_NoSessionIsNoop(t *testing.T) {
	c, fs, _, seen := newFixture()

	require.NoError(t, c.End(context.Background()))
	assert.Zero(t, fs.endCalls.Load())
	assert.Empty(t, *seen)
}

func TestEnd_ConcurrentCallersShareOneCall(t *testing.T) {
	c, fs, _, _ := newFixture()
	_, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	fs.endGate = make(chan struct{})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.End(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return fs.endCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(fs.endGate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fs.endCalls.Load())
}

func TestEnd_TransportFailureClearsLocallyKeepsMarker(t *testing.T) {
	c, fs, store, _ := newFixture()
	_, err := c.Start(context.Background(), "Spanish", "default", "")
	require.NoError(t, err)

	fs.endErr = client.ErrUnavailable
	err = c.End(context.Background())

	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Nil(t, c.Current())
	marker, ok, _ := store.Get(context.Background(), metadata.KeyActiveSession)
	assert.True(t, ok)
	assert.Equal(t, "s-1", marker)
}

func TestRecover(t *testing.T) {
	t.Run("ends orphaned session and clears marker", func(t *testing.T) {
		c, fs, store, _ := newFixture()
		require.NoError(t, store.Set(context.Background(), metadata.KeyActiveSession, "old"))

		require.NoError(t, c.Recover(context.Background()))
		assert.Equal(t, "old", fs.LastEndedID)
		assert.Empty(t, store.m)
	})

	t.Run("session already gone on service", func(t *testing.T) {
		c, fs, store, _ := newFixture()
		require.NoError(t, store.Set(context.Background(), metadata.KeyActiveSession, "old"))
		fs.endErr = &client.ServiceError{Status: 404, Message: "Session not found"}

		require.NoError(t, c.Recover(context.Background()))
		assert.Empty(t, store.m)
	})

	t.Run("service unreachable keeps marker", func(t *testing.T) {
		c, fs, store, _ := newFixture()
		require.NoError(t, store.Set(context.Background(), metadata.KeyActiveSession, "old"))
		fs.endErr = client.ErrUnavailable

		require.ErrorIs(t, c.Recover(context.Background()), client.ErrUnavailable)
		assert.Equal(t, "old", store.m[metadata.KeyActiveSession])
	})

	t.Run("nothing to recover", func(t *testing.T) {
		c, fs, _, _ := newFixture()

		require.NoError(t, c.Recover(context.Background()))
		assert.Zero(t, fs.endCalls.Load())
	})

	t.Run("no store", func(t *testing.T) {
		fs := &fakeScheduler{}
		require.NoError(t, NewController(fs).Recover(context.Background()))
	})
}
