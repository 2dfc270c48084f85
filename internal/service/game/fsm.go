package game

import (
	"time"

	"go.uber.org/zap"
)

const DEFAULT_MAX_PLAYERS = 30

type MachineOption func(*GameMachine)

func WithRand(rng Rand) MachineOption {
	return func(gm *GameMachine) {
		gm.rng = rng
	}
}

func WithClock(now func() time.Time) MachineOption {
	return func(gm *GameMachine) {
		gm.now = now
	}
}

func WithMaxPlayers(n int) MachineOption {
	return func(gm *GameMachine) {
		if n > 0 {
			gm.maxPlayers = n
		}
	}
}

// GameMachine 是房间的状态机。它本身不持有任何房间状态，
// Apply 接收一份房间快照和一个事件，返回新的快照或拒绝原因，
// 因此可以被任意多个并发事务共享
type GameMachine struct {
	handlers   map[string]StageHandler
	rng        Rand
	now        func() time.Time
	maxPlayers int
}

func NewGameMachine(opts ...MachineOption) *GameMachine {
	gm := &GameMachine{
		handlers:   make(map[string]StageHandler),
		rng:        DefaultRand(),
		now:        time.Now,
		maxPlayers: DEFAULT_MAX_PLAYERS,
	}

	for _, opt := range opts {
		opt(gm)
	}

	for _, h := range []StageHandler{
		NewLobbyStageHandler(),
		NewRevealStageHandler(),
		NewDescribeStageHandler(),
		NewDiscussStageHandler(),
		NewVoteStageHandler(),
		NewGuessStageHandler(),
		NewResultStageHandler(),
	} {
		gm.handlers[h.Stage()] = h
	}

	return gm
}

func (gm *GameMachine) MaxPlayers() int {
	return gm.maxPlayers
}

// Apply 在房间副本上执行事件。
// 返回错误时原快照原样返回；返回 (nil, nil) 表示房间已空，应当删除
func (gm *GameMachine) Apply(room *Room, ev Event) (*Room, error) {
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if ev == nil {
		return room, ErrInvalidRequest
	}

	ctx := &StageContext{
		Room:       room.Clone(),
		Rand:       gm.rng,
		Now:        gm.now(),
		MaxPlayers: gm.maxPlayers,
	}

	var err error

	// 加入、退出和重置在任何阶段都可以处理
	switch req := ev.(type) {
	case JoinGameRequest:
		err = onPlayerJoin(ctx, req)
	case ExitGameRequest:
		err = onPlayerExit(ctx, req)
	case AddBotsRequest:
		err = onAddBots(ctx, req)
	case ResetRoomRequest:
		err = onResetRoom(ctx, req)
	default:
		handler, ok := gm.handlers[ctx.Room.Phase]
		if !ok {
			zap.L().Error(
				"未知的房间阶段",
				zap.String("room_id", room.ID),
				zap.String("phase", ctx.Room.Phase),
			)
			return room, ErrWrongPhase
		}

		err = handler.OnHandle(ctx, ev)
	}

	if err != nil {
		return room, err
	}

	if len(ctx.Room.Players) == 0 {
		return nil, nil
	}

	gm.settle(ctx)

	ctx.Room.UpdatedAt = ctx.Now

	return ctx.Room, nil
}

// settle 依次执行挂起的阶段切换，直到状态稳定
func (gm *GameMachine) settle(ctx *StageContext) {
	// 每个阶段最多切换一次就足以覆盖所有链式切换
	for i := 0; ctx.next != "" && i < len(gm.handlers); i++ {
		next := ctx.next
		ctx.next = ""

		if cur, ok := gm.handlers[ctx.Room.Phase]; ok {
			cur.OnExit(ctx)
		}

		ctx.Room.Phase = next
		ctx.Room.PhaseVersion++

		if h, ok := gm.handlers[next]; ok {
			h.OnEnter(ctx)
		}
	}
}
