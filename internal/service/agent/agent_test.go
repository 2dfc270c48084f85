package agent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"liar-game-be/internal/service/game"
	"liar-game-be/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

const testDelay = 20 * time.Millisecond

// storeDispatcher 与 RoomService 一样，把事件放进一次存储事务里执行
type storeDispatcher struct {
	st *store.MemoryStore
	gm *game.GameMachine
}

func (d *storeDispatcher) Dispatch(ctx context.Context, roomID string, ev game.Event) (*game.Room, error) {
	return d.st.Transact(ctx, roomID, func(room *game.Room) (*game.Room, error) {
		return d.gm.Apply(room, ev)
	})
}

// recordingDispatcher 只记录收到的事件
type recordingDispatcher struct {
	mu     sync.Mutex
	events []game.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ string, ev game.Event) (*game.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = append(d.events, ev)
	return nil, nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.events)
}

// newRoom 构造一个房主为真人 h，其余为机器人的房间
func newRoom(bots ...string) *game.Room {
	room := game.NewRoom("r1", "h", game.Player{Name: "Host"}, 3, testEpoch)
	for i, id := range bots {
		room.Players[id] = game.Player{
			Name:     "🤖 Bot " + id,
			IsBot:    true,
			JoinedAt: testEpoch.Add(time.Duration(i+1) * time.Second),
		}
		room.Scores[id] = 0
	}
	room.SecretWord = "사과"
	room.TopicCategory = "food"
	room.Round = 1
	room.PhaseVersion = 1

	return room
}

func describingRoom(order []string, bots ...string) *game.Room {
	room := newRoom(bots...)
	room.Phase = game.PHASE_DESCRIBING
	room.TurnOrder = order
	room.LiarID = bots[len(bots)-1]

	return room
}

// runAgent 把房间放进内存存储，并让代理订阅它
func runAgent(t *testing.T, room *game.Room, cfg Config) (*store.MemoryStore, *Agent) {
	t.Helper()

	st := store.NewMemoryStore(10)
	require.NoError(t, st.Create(context.Background(), room))

	initial, err := st.Get(context.Background(), room.ID)
	require.NoError(t, err)

	gm := game.NewGameMachine()
	a := New(room.ID, &storeDispatcher{st: st, gm: gm}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	sub := st.Subscribe(room.ID)
	t.Cleanup(func() {
		cancel()
		sub.Close()
	})

	go a.Run(ctx, sub.C)
	a.Observe(initial)

	return st, a
}

func currentRoom(t *testing.T, st *store.MemoryStore) *game.Room {
	room, err := st.Get(context.Background(), "r1")
	require.NoError(t, err)
	return room
}

func TestAgent_BotsDescribeInTurn(t *testing.T) {
	st, _ := runAgent(t, describingRoom([]string{"b1", "b2"}, "b1", "b2"), Config{BotDelay: testDelay})

	require.Eventually(t, func() bool {
		return currentRoom(t, st).Phase == game.PHASE_DISCUSSION
	}, 2*time.Second, 5*time.Millisecond)

	room := currentRoom(t, st)
	require.Len(t, room.Descriptions, 2)
	assert.Equal(t, "b1", room.Descriptions[0].UserID)
	assert.Equal(t, "b2", room.Descriptions[1].UserID)
	for _, d := range room.Descriptions {
		assert.True(t, strings.HasSuffix(d.Text, AUTO_REPLY_SUFFIX))
	}
}

func TestAgent_HumanTurnIsNotTakenOver(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	a := New("r1", dispatcher, Config{BotDelay: testDelay})
	defer a.Stop()

	a.Observe(describingRoom([]string{"h", "b1"}, "b1"))

	assert.False(t, a.Pending())
	time.Sleep(3 * testDelay)
	assert.Zero(t, dispatcher.count())
}

func TestAgent_IdleTimeoutCoversHumans(t *testing.T) {
	st, _ := runAgent(t, describingRoom([]string{"h", "b1"}, "b1"), Config{
		BotDelay:    testDelay,
		IdleTimeout: testDelay,
	})

	require.Eventually(t, func() bool {
		return currentRoom(t, st).Phase == game.PHASE_DISCUSSION
	}, 2*time.Second, 5*time.Millisecond)

	room := currentRoom(t, st)
	require.Len(t, room.Descriptions, 2)
	assert.Equal(t, "h", room.Descriptions[0].UserID)
}

func TestAgent_BotsVote(t *testing.T) {
	room := newRoom("b1", "b2")
	room.Phase = game.PHASE_VOTING
	room.LiarID = "b2"
	room.Votes = map[string]string{"h": "b2"}

	st, _ := runAgent(t, room, Config{BotDelay: testDelay})

	require.Eventually(t, func() bool {
		return currentRoom(t, st).Phase != game.PHASE_VOTING
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAgent_PendingHumanVoterBlocksWithoutIdleTimeout(t *testing.T) {
	room := newRoom("b1")
	room.Phase = game.PHASE_VOTING
	room.LiarID = "b1"

	st, _ := runAgent(t, room, Config{BotDelay: testDelay})

	require.Eventually(t, func() bool {
		_, voted := currentRoom(t, st).Votes["b1"]
		return voted
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(3 * testDelay)
	latest := currentRoom(t, st)
	assert.Equal(t, game.PHASE_VOTING, latest.Phase)
	assert.NotContains(t, latest.Votes, "h")
}

func TestAgent_PhaseChangeCancelsTimer(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	a := New("r1", dispatcher, Config{BotDelay: 3 * testDelay})
	defer a.Stop()

	room := describingRoom([]string{"b1"}, "b1")
	room.Version = 1
	a.Observe(room)
	require.True(t, a.Pending())

	moved := room.Clone()
	moved.Version = 2
	moved.Phase = game.PHASE_DISCUSSION
	moved.PhaseVersion++
	a.Observe(moved)

	assert.False(t, a.Pending())
	time.Sleep(5 * testDelay)
	assert.Zero(t, dispatcher.count())
}

func TestAgent_SameTokenKeepsSingleTimer(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	a := New("r1", dispatcher, Config{BotDelay: 2 * testDelay})
	defer a.Stop()

	room := describingRoom([]string{"b1"}, "b1")
	for v := int64(1); v <= 5; v++ {
		snapshot := room.Clone()
		snapshot.Version = v
		a.Observe(snapshot)
	}

	require.Eventually(t, func() bool {
		return dispatcher.count() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(4 * testDelay)
	assert.Equal(t, 1, dispatcher.count())
}

func TestAgent_StopCancelsTimer(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	a := New("r1", dispatcher, Config{BotDelay: 2 * testDelay})

	a.Observe(describingRoom([]string{"b1"}, "b1"))
	require.True(t, a.Pending())

	a.Stop()
	assert.False(t, a.Pending())

	time.Sleep(4 * testDelay)
	assert.Zero(t, dispatcher.count())
}
