// Package session owns the process-wide registry of active rooms. The store
// is the only component that creates or deletes a Room, and its sweep loop
// drives every room's deadlines.
package session

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/game"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// codeAlphabet leaves out the characters players misread over a shoulder:
// I, O, U, 0 and 1.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTVWXYZ23456789"
	codeLength   = 4
	codeAttempts = 20
)

// Options configures a store.
type Options struct {
	Clock       game.Clock
	GracePeriod time.Duration // disconnect-to-seat-release window
	EmptyTTL    time.Duration // empty-room-to-teardown window
	Tick        time.Duration // sweep interval
}

func (o *Options) defaults() {
	if o.Clock == nil {
		o.Clock = game.SystemClock()
	}
	if o.GracePeriod == 0 {
		o.GracePeriod = 60 * time.Second
	}
	if o.EmptyTTL == 0 {
		o.EmptyTTL = 30 * time.Second
	}
	if o.Tick == 0 {
		o.Tick = 250 * time.Millisecond
	}
}

// Store is the in-memory room registry keyed by room code.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room

	log         zerolog.Logger
	clock       game.Clock
	broadcaster game.Broadcaster
	questions   game.QuestionRepository
	recorder    game.ScoreRecorder
	grace       time.Duration
	emptyTTL    time.Duration
	tick        time.Duration
}

// NewStore creates an empty registry.
func NewStore(log zerolog.Logger, broadcaster game.Broadcaster, questions game.QuestionRepository, recorder game.ScoreRecorder, opts Options) *Store {
	opts.defaults()
	return &Store{
		rooms:       make(map[string]*game.Room),
		log:         log,
		clock:       opts.Clock,
		broadcaster: broadcaster,
		questions:   questions,
		recorder:    recorder,
		grace:       opts.GracePeriod,
		emptyTTL:    opts.EmptyTTL,
		tick:        opts.Tick,
	}
}

// CreateRoom registers a new room under a fresh code and seats the host.
// Fails with ErrCapacity when no unused code can be found.
func (s *Store) CreateRoom(hostName, avatar string) (*game.Room, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.freeCode()
	if err != nil {
		return nil, "", err
	}
	room, hostID := game.NewRoom(code, s.log, s.clock, s.broadcaster, s.questions, s.recorder, hostName, avatar)
	s.rooms[code] = room
	s.log.Info().Str("room", code).Str("host", hostID).Msg("room created")
	return room, hostID, nil
}

func (s *Store) freeCode() (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		code := make([]byte, codeLength)
		for i := range code {
			code[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		if _, taken := s.rooms[string(code)]; !taken {
			return string(code), nil
		}
	}
	return "", game.ErrCapacity
}

// JoinRoom seats a new player in an existing room. Joining mid-game is
// rejected; only reconnection is allowed once the game started.
func (s *Store) JoinRoom(code, name, avatar string) (*game.Room, string, error) {
	room, ok := s.Get(code)
	if !ok {
		return nil, "", game.ErrRoomNotFound
	}
	playerID, err := room.AddPlayer(name, avatar)
	if err != nil {
		return nil, "", err
	}
	return room, playerID, nil
}

// Reconnect restores a disconnected player's session.
func (s *Store) Reconnect(code, playerID string) (*game.Room, error) {
	room, ok := s.Get(code)
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	if err := room.Reconnect(playerID); err != nil {
		return nil, err
	}
	return room, nil
}

// Disconnect starts a player's grace timer.
func (s *Store) Disconnect(code, playerID string) {
	if room, ok := s.Get(code); ok {
		room.Disconnect(playerID)
	}
}

// Get looks up a room by code.
func (s *Store) Get(code string) (*game.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

// Count returns the number of registered rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Tick sweeps every room: round deadlines, grace expiry, and removal of
// rooms that terminated or stayed empty past the grace window. A reconnect
// between sweeps cancels a pending removal.
func (s *Store) Tick(now time.Time) {
	s.mu.RLock()
	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	var remove []string
	for _, room := range rooms {
		room.Tick(now)
		room.ExpireGrace(now, s.grace)
		if room.Terminated() {
			remove = append(remove, room.Code())
			continue
		}
		if since := room.EmptySince(); !since.IsZero() && now.Sub(since) >= s.emptyTTL {
			remove = append(remove, room.Code())
		}
	}
	for _, code := range remove {
		s.removeIfDone(code, now)
	}
}

// removeIfDone deletes a room, re-checking emptiness under the lock so a
// just-reconnected player keeps their room.
func (s *Store) removeIfDone(code string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return
	}
	if !room.Terminated() {
		since := room.EmptySince()
		if since.IsZero() || now.Sub(since) < s.emptyTTL {
			return
		}
	}
	delete(s.rooms, code)
	if s.recorder != nil {
		s.recorder.DropRoom(code)
	}
	s.log.Info().Str("room", code).Msg("room removed")
}

// Run drives the sweep loop until the context ends.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(s.clock.Now())
		}
	}
}

// Categories exposes the question bank's category list for the REST surface.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	return s.questions.GetCategoryList(ctx)
}
