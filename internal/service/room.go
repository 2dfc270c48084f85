package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"liar-game-be/internal/monitor"
	"liar-game-be/internal/service/agent"
	"liar-game-be/internal/service/dto"
	"liar-game-be/internal/service/game"
	"liar-game-be/internal/store"

	"go.uber.org/zap"
)

const (
	CLEANUP_INTERVAL     = time.Minute
	CLEANUP_TIMEOUT      = 10 * time.Second
	CREATE_ROOM_ATTEMPTS = 3

	DEFAULT_MAX_SCORE = 3
	DEFAULT_ROOM_TTL  = 2 * time.Hour
)

type Options struct {
	DefaultMaxScore int
	MaxTieRounds    int
	BotDelay        time.Duration
	IdleTimeout     time.Duration
	// RoomTTL 之内没有任何提交的房间会被清理
	RoomTTL time.Duration
}

// RoomService 把客户端命令变成对房间文档的事务。
// 每个操作恰好是一次 store.Transact，本身不持有房间状态，
// 只为本进程见过的房间各维护一个活性代理
type RoomService struct {
	store   store.Store
	machine *game.GameMachine
	monitor *monitor.Monitor
	opts    Options
	now     func() time.Time

	mu     sync.Mutex
	agents map[string]*roomAgent

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

func NewRoomService(st store.Store, machine *game.GameMachine, mon *monitor.Monitor, opts Options) *RoomService {
	if opts.DefaultMaxScore <= 0 {
		opts.DefaultMaxScore = DEFAULT_MAX_SCORE
	}
	if opts.RoomTTL <= 0 {
		opts.RoomTTL = DEFAULT_ROOM_TTL
	}

	rs := &RoomService{
		store:       st,
		machine:     machine,
		monitor:     mon,
		opts:        opts,
		now:         time.Now,
		agents:      make(map[string]*roomAgent),
		cleanUpDone: make(chan struct{}),
	}

	// 启动一个 goroutine 定期清理过期的房间
	go rs.startCleanupLoop()

	return rs
}

func (rs *RoomService) startCleanupLoop() {
	ticker := time.NewTicker(CLEANUP_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-rs.cleanUpDone:
			return

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), CLEANUP_TIMEOUT)
			rs.cleanup(ctx)
			cancel()
		}
	}
}

// cleanup 删除长时间没有提交的房间，并回收已经不存在的房间的代理
func (rs *RoomService) cleanup(ctx context.Context) {
	ids, err := rs.store.ListIdle(ctx, rs.now().Add(-rs.opts.RoomTTL))
	if err != nil {
		zap.L().Error("查询闲置房间失败", zap.Error(err))
		return
	}

	collected := 0
	for _, roomID := range ids {
		zap.S().Infof("房间 %s 长时间无操作，开始清理", roomID)

		if err := rs.store.Delete(ctx, roomID); err != nil && !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("清理房间失败", zap.String("room_id", roomID), zap.Error(err))
			continue
		}

		rs.stopAgent(roomID)
		collected++
	}
	rs.monitor.AddRoomsCollected(collected)

	rs.mu.Lock()
	known := make([]string, 0, len(rs.agents))
	for roomID := range rs.agents {
		known = append(known, roomID)
	}
	rs.mu.Unlock()

	for _, roomID := range known {
		room, err := rs.store.Get(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !isRoomValid(room)) {
			zap.S().Debugf("房间 %s 已不存在，回收代理", roomID)
			rs.stopAgent(roomID)
		}
	}
}

func (rs *RoomService) Close() {
	rs.closeOnce.Do(func() {
		close(rs.cleanUpDone)

		rs.mu.Lock()
		defer rs.mu.Unlock()

		for roomID, ra := range rs.agents {
			ra.stop()
			delete(rs.agents, roomID)
		}
		rs.monitor.SetActiveRooms(0)
	})
}

func (rs *RoomService) CreateRoom(ctx context.Context, req dto.CreateRoomRequest) (dto.CreateRoomResponse, error) {
	name := normalizeName(req.Name)
	if name == "" {
		return dto.CreateRoomResponse{}, fmt.Errorf("%w: 创建者名称不能为空", game.ErrInvalidRequest)
	}

	userID := req.UserID
	if userID == "" {
		userID = game.GenShortID()
	}

	maxScore := req.MaxScore
	if maxScore <= 0 {
		maxScore = rs.opts.DefaultMaxScore
	}

	host := game.Player{
		Name:  name,
		Photo: req.Photo,
	}

	for attempt := 0; attempt < CREATE_ROOM_ATTEMPTS; attempt++ {
		room := game.NewRoom(game.GenShortID(), userID, host, maxScore, rs.now())
		room.MaxTieRounds = rs.opts.MaxTieRounds

		err := rs.store.Create(ctx, room)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return dto.CreateRoomResponse{}, err
		}

		rs.ensureAgent(room.ID, room)

		zap.S().Infof("房间 %s 由 %s 创建", room.ID, name)

		return dto.CreateRoomResponse{
			RoomID: room.ID,
			UserID: userID,
			Room:   game.ViewFor(room, userID),
		}, nil
	}

	return dto.CreateRoomResponse{}, errors.New("创建房间失败，房间号冲突")
}

func (rs *RoomService) JoinRoom(ctx context.Context, req dto.JoinRoomRequest) (dto.JoinRoomResponse, error) {
	if req.RoomID == "" || req.UserID == "" {
		return dto.JoinRoomResponse{}, fmt.Errorf("%w: 房间 ID 和用户 ID 不能为空", game.ErrInvalidRequest)
	}

	name := normalizeName(req.Name)
	if name == "" {
		return dto.JoinRoomResponse{}, fmt.Errorf("%w: 加入者名称不能为空", game.ErrInvalidRequest)
	}

	// 事务之前先检查房间是否存在、是否已满，最终仍以事务内的校验为准
	room, err := rs.store.Get(ctx, req.RoomID)
	if err != nil {
		return dto.JoinRoomResponse{}, translateStoreErr(err)
	}
	if !room.IsPlayer(req.UserID) && len(room.Players) >= rs.machine.MaxPlayers() {
		zap.S().Debugf("房间 %s 已满，%s 无法加入", req.RoomID, name)
		return dto.JoinRoomResponse{}, game.ErrRoomFull
	}

	room, err = rs.Dispatch(ctx, req.RoomID, game.JoinGameRequest{
		UserID: req.UserID,
		Name:   name,
		Photo:  req.Photo,
	})
	if err != nil {
		return dto.JoinRoomResponse{}, err
	}

	zap.S().Infof("房间 %s 接纳玩家 %s", req.RoomID, name)

	return dto.JoinRoomResponse{
		Room: game.ViewFor(room, req.UserID),
	}, nil
}

func (rs *RoomService) LeaveRoom(ctx context.Context, req dto.LeaveRoomRequest) error {
	room, err := rs.Dispatch(ctx, req.RoomID, game.ExitGameRequest{UserID: req.UserID})
	if err != nil {
		return err
	}

	if room == nil {
		zap.S().Infof("房间 %s 最后一名玩家 %s 离开，房间已删除", req.RoomID, req.UserID)
	} else {
		zap.S().Infof("玩家 %s 离开房间 %s", req.UserID, req.RoomID)
	}

	return nil
}

// Dispatch 在一次事务中把事件交给状态机。
// 返回提交后的房间；房间因此被删除时返回 (nil, nil)
func (rs *RoomService) Dispatch(ctx context.Context, roomID string, ev game.Event) (*game.Room, error) {
	if ev == nil {
		return nil, game.ErrInvalidRequest
	}

	start := time.Now()

	room, err := rs.store.Transact(ctx, roomID, func(room *game.Room) (*game.Room, error) {
		return rs.machine.Apply(room, ev)
	})
	err = translateStoreErr(err)

	rs.monitor.ObserveAction(ev.ReqType(), actionResult(err), time.Since(start))

	switch {
	case err == nil:
	case game.IsRejection(err):
		zap.L().Debug(
			"房间动作被拒绝",
			zap.String("room_id", roomID),
			zap.String("type", ev.ReqType()),
			zap.String("actor", ev.Actor()),
			zap.Error(err),
		)
		return nil, err
	case errors.Is(err, store.ErrConflict):
		rs.monitor.IncTxnConflicts()
		zap.L().Warn(
			"房间动作冲突，重试次数耗尽",
			zap.String("room_id", roomID),
			zap.String("type", ev.ReqType()),
		)
		return nil, err
	default:
		zap.L().Error(
			"房间动作提交失败",
			zap.String("room_id", roomID),
			zap.String("type", ev.ReqType()),
			zap.Error(err),
		)
		return nil, err
	}

	if room == nil {
		rs.stopAgent(roomID)
		return nil, nil
	}

	rs.ensureAgent(roomID, room)

	return room, nil
}

func (rs *RoomService) GetRoom(ctx context.Context, roomID string) (*game.Room, error) {
	room, err := rs.store.Get(ctx, roomID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if !isRoomValid(room) {
		return nil, game.ErrRoomNotFound
	}

	return room, nil
}

func (rs *RoomService) GetView(ctx context.Context, roomID, userID string) (game.RoomView, error) {
	room, err := rs.GetRoom(ctx, roomID)
	if err != nil {
		return game.RoomView{}, err
	}

	return game.ViewFor(room, userID), nil
}

// Subscribe 订阅房间的每一次提交，调用方负责 Close
func (rs *RoomService) Subscribe(roomID string) *store.Subscription {
	return rs.store.Subscribe(roomID)
}

func (rs *RoomService) ListTopics() []game.Topic {
	return game.Topics()
}

// ensureAgent 保证本进程为该房间运行一个代理，并把最新快照交给它
func (rs *RoomService) ensureAgent(roomID string, latest *game.Room) {
	rs.mu.Lock()

	ra, ok := rs.agents[roomID]
	if !ok {
		a := agent.New(
			roomID,
			rs,
			agent.Config{
				BotDelay:    rs.opts.BotDelay,
				IdleTimeout: rs.opts.IdleTimeout,
			},
			agent.WithActionHook(rs.monitor.IncAgentAction),
		)

		ctx, cancel := context.WithCancel(context.Background())
		ra = &roomAgent{
			agent:  a,
			sub:    rs.store.Subscribe(roomID),
			cancel: cancel,
		}
		rs.agents[roomID] = ra
		rs.monitor.SetActiveRooms(len(rs.agents))

		go func() {
			ra.agent.Run(ctx, ra.sub.C)
			rs.forgetAgent(roomID, ra)
		}()

		zap.S().Debugf("房间 %s 代理已启动", roomID)
	}

	rs.mu.Unlock()

	ra.agent.Observe(latest)
}

func (rs *RoomService) stopAgent(roomID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if ra, ok := rs.agents[roomID]; ok {
		ra.stop()
		delete(rs.agents, roomID)
		rs.monitor.SetActiveRooms(len(rs.agents))

		zap.S().Debugf("房间 %s 代理已停止", roomID)
	}
}

// forgetAgent 在代理自行退出（房间被删除）后移除登记
func (rs *RoomService) forgetAgent(roomID string, ra *roomAgent) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if cur, ok := rs.agents[roomID]; ok && cur == ra {
		ra.stop()
		delete(rs.agents, roomID)
		rs.monitor.SetActiveRooms(len(rs.agents))
	}
}

// AgentCount 返回本进程正在看护的房间数
func (rs *RoomService) AgentCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return len(rs.agents)
}
