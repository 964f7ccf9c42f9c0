package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type nopBroadcaster struct{}

func (nopBroadcaster) ToRoom(code, msgType string, payload any)             {}
func (nopBroadcaster) ToPlayer(code, playerID, msgType string, payload any) {}

type dropRecorder struct {
	mu      sync.Mutex
	dropped []string
}

func (d *dropRecorder) RecordScores(code string, entries []model.RankEntry) {}

func (d *dropRecorder) DropRoom(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropped = append(d.dropped, code)
}

func newTestStore() (*Store, *fakeClock, *dropRecorder) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	recorder := &dropRecorder{}
	store := NewStore(zerolog.Nop(), nopBroadcaster{}, repository.Seeded(), recorder, Options{
		Clock:       clock,
		GracePeriod: 60 * time.Second,
		EmptyTTL:    30 * time.Second,
	})
	return store, clock, recorder
}

func TestCreateRoomIssuesReadableCode(t *testing.T) {
	store, _, _ := newTestStore()

	room, hostID, err := store.CreateRoom("Alice", "")
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.NotEmpty(t, hostID)

	code := room.Code()
	assert.Len(t, code, codeLength)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(codeAlphabet, ch), "unexpected code character %q", ch)
	}

	got, ok := store.Get(code)
	assert.True(t, ok)
	assert.Same(t, room, got)
	assert.Equal(t, 1, store.Count())
}

func TestCreateRoomCodesAreUnique(t *testing.T) {
	store, _, _ := newTestStore()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, _, err := store.CreateRoom("Host", "")
		require.NoError(t, err)
		assert.False(t, seen[room.Code()])
		seen[room.Code()] = true
	}
}

func TestJoinRoomUnknownCode(t *testing.T) {
	store, _, _ := newTestStore()

	_, _, err := store.JoinRoom("ZZZZ", "Bob", "")
	assert.Error(t, err)
}

func TestJoinAndReconnect(t *testing.T) {
	store, _, _ := newTestStore()
	room, _, err := store.CreateRoom("Alice", "")
	require.NoError(t, err)

	joined, bobID, err := store.JoinRoom(room.Code(), "Bob", "")
	require.NoError(t, err)
	assert.Same(t, room, joined)

	store.Disconnect(room.Code(), bobID)
	back, err := store.Reconnect(room.Code(), bobID)
	require.NoError(t, err)
	assert.Same(t, room, back)
}

func TestSweepDropsLobbyPlayerAfterGrace(t *testing.T) {
	store, clock, _ := newTestStore()
	room, _, err := store.CreateRoom("Alice", "")
	require.NoError(t, err)
	_, bobID, err := store.JoinRoom(room.Code(), "Bob", "")
	require.NoError(t, err)

	store.Disconnect(room.Code(), bobID)
	clock.Advance(61 * time.Second)
	store.Tick(clock.Now())

	snap := room.Snapshot()
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "Alice", snap.Players[0].Name)
}

func TestSweepRemovesEmptyRoomAfterTTL(t *testing.T) {
	store, clock, recorder := newTestStore()
	room, hostID, err := store.CreateRoom("Alice", "")
	require.NoError(t, err)
	code := room.Code()

	store.Disconnect(code, hostID)
	clock.Advance(31 * time.Second)
	store.Tick(clock.Now())

	_, ok := store.Get(code)
	assert.False(t, ok)
	assert.Zero(t, store.Count())
	assert.Equal(t, []string{code}, recorder.dropped)
}

func TestSweepKeepsEmptyRoomInsideTTL(t *testing.T) {
	store, clock, _ := newTestStore()
	room, hostID, err := store.CreateRoom("Alice", "")
	require.NoError(t, err)

	store.Disconnect(room.Code(), hostID)
	clock.Advance(10 * time.Second)
	store.Tick(clock.Now())

	_, ok := store.Get(room.Code())
	assert.True(t, ok)
}

func TestReconnectCancelsRoomExpiry(t *testing.T) {
	store, clock, _ := newTestStore()
	room, hostID, err := store.CreateRoom("Alice", "")
	require.NoError(t, err)

	store.Disconnect(room.Code(), hostID)
	clock.Advance(20 * time.Second)
	store.Tick(clock.Now())

	_, err = store.Reconnect(room.Code(), hostID)
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	store.Tick(clock.Now())

	_, ok := store.Get(room.Code())
	assert.True(t, ok)
}

func TestCategoriesServesQuestionBank(t *testing.T) {
	store, _, _ := newTestStore()

	categories, err := store.Categories(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, categories)
}
