package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// zeroRand 永远返回 0：卧底是最早加入的玩家，洗牌结果固定
type zeroRand struct{}

func (zeroRand) IntN(int) int { return 0 }

func newTestMachine(opts ...MachineOption) *GameMachine {
	base := []MachineOption{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return testEpoch }),
	}

	return NewGameMachine(append(base, opts...)...)
}

// newLobby 创建一个有 n 个玩家的大厅，p1 是房主
func newLobby(t *testing.T, gm *GameMachine, n int) *Room {
	t.Helper()

	room := NewRoom("room1", "p1", Player{Name: "P1"}, 3, testEpoch)

	for i := 2; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		room.Players[id] = Player{Name: "P" + fmt.Sprint(i), JoinedAt: testEpoch.Add(time.Duration(i) * time.Second)}
		room.Scores[id] = 0
	}

	require.Len(t, room.Players, n)
	return room
}

// newVotingRoom 直接构造一个处于投票阶段、卧底为 liarID 的房间
func newVotingRoom(t *testing.T, n int, liarID string) *Room {
	t.Helper()

	room := newLobby(t, newTestMachine(), n)
	room.Phase = PHASE_VOTING
	room.Round = 1
	room.SecretWord = "사과"
	room.TopicName = "음식"
	room.LiarID = liarID
	room.TurnOrder = room.PlayerIDs()
	room.CurrentTurnIndex = len(room.TurnOrder)

	return room
}

func mustApply(t *testing.T, gm *GameMachine, room *Room, ev Event) *Room {
	t.Helper()

	next, err := gm.Apply(room, ev)
	require.NoError(t, err)
	require.NotNil(t, next)

	return next
}
