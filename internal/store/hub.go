package store

import (
	"sync"

	"liar-game-be/internal/service/game"
)

// Subscription 只保证最终收到最新的文档：
// 消费者跟不上时，旧的快照会被新的覆盖。房间被删除时 C 会被关闭
type Subscription struct {
	C <-chan *game.Room

	once  sync.Once
	close func()
}

func (s *Subscription) Close() {
	s.once.Do(s.close)
}

type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan *game.Room]struct{}
}

func newHub() *hub {
	return &hub{
		subs: make(map[string]map[chan *game.Room]struct{}),
	}
}

func (h *hub) subscribe(roomID string) *Subscription {
	ch := make(chan *game.Room, 1)

	h.mu.Lock()
	if h.subs[roomID] == nil {
		h.subs[roomID] = make(map[chan *game.Room]struct{})
	}
	h.subs[roomID][ch] = struct{}{}
	h.mu.Unlock()

	return &Subscription{
		C: ch,
		close: func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if set, ok := h.subs[roomID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, roomID)
				}
			}
		},
	}
}

// publish 向所有订阅者投递最新文档，永不阻塞
func (h *hub) publish(room *game.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[room.ID] {
		select {
		case ch <- room:
			continue
		default:
		}

		// 丢弃尚未消费的旧快照
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- room:
		default:
		}
	}
}

// closeRoom 在房间被删除后关闭全部订阅
func (h *hub) closeRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[roomID] {
		close(ch)
	}
	delete(h.subs, roomID)
}

func (h *hub) subscribedRooms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}

	return ids
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}
