package server

import (
	"context"
	"sync"
	"time"

	"codeberg.org/tavlalab/tavla"
)

// GameRecord is the stored form of a game: who is playing, how far along
// it is and who won.
type GameRecord struct {
	ID           int64
	Player1      string
	Player2      string
	PasswordHash string
	Started      time.Time
	Ended        time.Time
	Winner       tavla.Side
	Snapshot     *tavla.Snapshot
}

// GameStore persists games. Implementations must be safe for concurrent
// use.
type GameStore interface {
	// CreateGame stores a new record and returns its assigned id.
	CreateGame(ctx context.Context, rec *GameRecord) (int64, error)
	// SaveSnapshot replaces the stored state of an existing game.
	SaveSnapshot(ctx context.Context, id int64, s *tavla.Snapshot) error
	// RecordResult finalizes a finished game and updates player ratings.
	RecordResult(ctx context.Context, rec *GameRecord) error
	// LoadLatest returns the most recently created unfinished game, or
	// nil when there is none.
	LoadLatest(ctx context.Context) (*GameRecord, error)
}

type memoryStore struct {
	lock   sync.Mutex
	nextID int64
	games  map[int64]*GameRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID: 1,
		games:  make(map[int64]*GameRecord),
	}
}

func (m *memoryStore) CreateGame(_ context.Context, rec *GameRecord) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.nextID
	m.nextID++

	stored := *rec
	stored.ID = id
	m.games[id] = &stored
	return id, nil
}

func (m *memoryStore) SaveSnapshot(_ context.Context, id int64, s *tavla.Snapshot) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	rec, ok := m.games[id]
	if !ok {
		return nil
	}
	rec.Snapshot = s
	return nil
}

func (m *memoryStore) RecordResult(_ context.Context, rec *GameRecord) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	stored, ok := m.games[rec.ID]
	if !ok {
		return nil
	}
	stored.Ended = rec.Ended
	stored.Winner = rec.Winner
	return nil
}

func (m *memoryStore) LoadLatest(_ context.Context) (*GameRecord, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	var latest *GameRecord
	for _, rec := range m.games {
		if rec.Winner != tavla.SideNone {
			continue
		}
		if latest == nil || rec.ID > latest.ID {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}
