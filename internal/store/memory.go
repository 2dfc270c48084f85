package store

import (
	"context"
	"sync"
	"time"

	"liar-game-be/internal/service/game"
)

type memoryEntry struct {
	version   int64
	data      []byte
	updatedAt time.Time
}

// MemoryStore 是单进程的文档存储。文档以 JSON 保存，
// 读出的永远是独立副本，与持久化实现的行为一致
type MemoryStore struct {
	mu         sync.RWMutex
	docs       map[string]memoryEntry
	hub        *hub
	maxRetries int
}

func NewMemoryStore(maxRetries int) *MemoryStore {
	return &MemoryStore{
		docs:       make(map[string]memoryEntry),
		hub:        newHub(),
		maxRetries: maxRetries,
	}
}

func (s *MemoryStore) Create(ctx context.Context, room *game.Room) error {
	room.Version = 1

	data, err := encodeRoom(room)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[room.ID]; exists {
		return ErrAlreadyExists
	}

	s.docs[room.ID] = memoryEntry{
		version:   room.Version,
		data:      data,
		updatedAt: room.UpdatedAt,
	}

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, roomID string) (*game.Room, error) {
	room, _, err := s.load(roomID)
	return room, err
}

func (s *MemoryStore) load(roomID string) (*game.Room, int64, error) {
	s.mu.RLock()
	entry, ok := s.docs[roomID]
	s.mu.RUnlock()

	if !ok {
		return nil, 0, ErrNotFound
	}

	room, err := decodeRoom(entry.data, entry.version)
	if err != nil {
		return nil, 0, err
	}

	return room, entry.version, nil
}

func (s *MemoryStore) Transact(ctx context.Context, roomID string, fn TxFunc) (*game.Room, error) {
	load := func(context.Context) (*game.Room, int64, error) {
		return s.load(roomID)
	}

	return runTransaction(ctx, roomID, s.maxRetries, load, s.commitFor(roomID), fn)
}

func (s *MemoryStore) commitFor(roomID string) commitFunc {
	return func(_ context.Context, next *game.Room, expected int64) error {
		var data []byte
		if next != nil {
			encoded, err := encodeRoom(next)
			if err != nil {
				return err
			}
			data = encoded
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		entry, ok := s.docs[roomID]
		if !ok {
			return ErrNotFound
		}
		if entry.version != expected {
			return errStale
		}

		if next == nil {
			delete(s.docs, roomID)
			s.hub.closeRoom(roomID)
			return nil
		}

		s.docs[roomID] = memoryEntry{
			version:   next.Version,
			data:      data,
			updatedAt: next.UpdatedAt,
		}

		// 持锁发布，保证订阅者按提交顺序收到
		published, err := decodeRoom(data, next.Version)
		if err != nil {
			return err
		}
		s.hub.publish(published)

		return nil
	}
}

func (s *MemoryStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[roomID]; !ok {
		return ErrNotFound
	}

	delete(s.docs, roomID)
	s.hub.closeRoom(roomID)

	return nil
}

func (s *MemoryStore) ListIdle(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, entry := range s.docs {
		if entry.updatedAt.Before(before) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (s *MemoryStore) Subscribe(roomID string) *Subscription {
	return s.hub.subscribe(roomID)
}

func (s *MemoryStore) Close() error {
	s.hub.closeAll()
	return nil
}
