package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"liar-game-be/internal/service/game"
	"liar-game-be/internal/store"

	"go.uber.org/zap"
)

const (
	DEFAULT_BOT_DELAY = 3 * time.Second
	DISPATCH_TIMEOUT  = 5 * time.Second

	AUTO_REPLY_SUFFIX = " (자동응답)"
)

var fillerPhrases = []string{
	"음... 어렵네요.",
	"맛있는 것 같아요!",
	"평소에 자주 봅니다.",
	"저는 잘 모르겠어요.",
	"확실히 생물은 아니에요.",
}

// Dispatcher 是代理提交动作的入口，与真实玩家走同一条事务路径
type Dispatcher interface {
	Dispatch(ctx context.Context, roomID string, ev game.Event) (*game.Room, error)
}

type Config struct {
	BotDelay time.Duration
	// IdleTimeout 为 0 时不替真人玩家代打
	IdleTimeout time.Duration
}

// token 标识一次定时器所针对的房间状态，
// 阶段或轮次推进后旧的定时器即失效
type token struct {
	phase        string
	phaseVersion int64
}

// Agent 替机器人（以及可选的挂机玩家）推进发言和投票。
// 每个房间一个实例，任意时刻最多只有一个待触发的定时器
type Agent struct {
	roomID     string
	dispatcher Dispatcher
	cfg        Config
	rng        game.Rand
	onAction   func(reqType string)

	mu      sync.Mutex
	latest  *game.Room
	timer   *time.Timer
	armed   token
	stopped bool
}

type Option func(*Agent)

func WithRand(rng game.Rand) Option {
	return func(a *Agent) {
		a.rng = rng
	}
}

// WithActionHook 在代理成功提交动作后回调，用于统计
func WithActionHook(fn func(reqType string)) Option {
	return func(a *Agent) {
		a.onAction = fn
	}
}

func New(roomID string, dispatcher Dispatcher, cfg Config, opts ...Option) *Agent {
	if cfg.BotDelay <= 0 {
		cfg.BotDelay = DEFAULT_BOT_DELAY
	}

	a := &Agent{
		roomID:     roomID,
		dispatcher: dispatcher,
		cfg:        cfg,
		rng:        game.DefaultRand(),
		onAction:   func(string) {},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Run 消费房间快照直到通道关闭（房间被删除）或 ctx 结束
func (a *Agent) Run(ctx context.Context, updates <-chan *game.Room) {
	defer a.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case room, ok := <-updates:
			if !ok {
				zap.L().Debug("房间已删除，代理退出", zap.String("room_id", a.roomID))
				return
			}
			a.Observe(room)
		}
	}
}

// Observe 根据最新快照重新安排定时器
func (a *Agent) Observe(room *game.Room) {
	if room == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	// 快照可能乱序到达，旧版本直接忽略
	if a.latest != nil && room.Version < a.latest.Version {
		return
	}
	a.latest = room

	delay, ok := a.plan(room)
	tok := token{phase: room.Phase, phaseVersion: room.PhaseVersion}

	if a.timer != nil {
		if ok && tok == a.armed {
			return
		}
		a.timer.Stop()
		a.timer = nil
	}

	if !ok {
		return
	}

	a.armed = tok
	a.timer = time.AfterFunc(delay, func() {
		a.fire(tok)
	})
}

// plan 判断当前快照是否需要代打，以及等待多久
func (a *Agent) plan(room *game.Room) (time.Duration, bool) {
	switch room.Phase {
	case game.PHASE_DESCRIBING:
		holder := room.CurrentTurnID()
		if holder == "" {
			return 0, false
		}
		if room.Players[holder].IsBot {
			return a.cfg.BotDelay, true
		}
		if a.cfg.IdleTimeout > 0 {
			return a.cfg.IdleTimeout, true
		}

	case game.PHASE_VOTING:
		pending := room.PendingVoters()
		humans := false
		for _, id := range pending {
			if room.Players[id].IsBot {
				return a.cfg.BotDelay, true
			}
			humans = true
		}
		if humans && a.cfg.IdleTimeout > 0 {
			return a.cfg.IdleTimeout, true
		}
	}

	return 0, false
}

func (a *Agent) fire(tok token) {
	a.mu.Lock()
	if a.stopped || a.armed != tok || a.latest == nil {
		a.mu.Unlock()
		return
	}
	room := a.latest
	a.timer = nil
	a.mu.Unlock()

	if room.Phase != tok.phase || room.PhaseVersion != tok.phaseVersion {
		return
	}

	var events []game.Event

	switch room.Phase {
	case game.PHASE_DESCRIBING:
		events = append(events, game.DescribeRequest{
			UserID: room.CurrentTurnID(),
			Text:   a.fillerPhrase(),
		})

	case game.PHASE_VOTING:
		// 先投机器人的票；真人只有在挂机超时后才代投
		bots, humans := a.pendingVoters(room)
		voters := bots
		if len(bots) == 0 {
			voters = humans
		}
		for _, id := range voters {
			events = append(events, game.VoteRequest{
				VoterID:  id,
				TargetID: a.randomTarget(room),
			})
		}
	}

	retry := false
	for _, ev := range events {
		ctx, cancel := context.WithTimeout(context.Background(), DISPATCH_TIMEOUT)
		_, err := a.dispatcher.Dispatch(ctx, a.roomID, ev)
		cancel()

		switch {
		case err == nil:
			a.onAction(ev.ReqType())
		case game.IsRejection(err):
			// 状态已被别人推进，丢弃
			zap.L().Debug(
				"代理动作已过期",
				zap.String("room_id", a.roomID),
				zap.String("type", ev.ReqType()),
				zap.Error(err),
			)
		case errors.Is(err, store.ErrNotFound):
			return
		default:
			zap.L().Warn(
				"代理动作提交失败",
				zap.String("room_id", a.roomID),
				zap.String("type", ev.ReqType()),
				zap.Error(err),
			)
			retry = true
		}
	}

	// 存储暂时不可用时，在同一快照上重新排期
	if retry {
		a.mu.Lock()
		latest := a.latest
		a.armed = token{}
		a.mu.Unlock()

		a.Observe(latest)
	}
}

func (a *Agent) pendingVoters(room *game.Room) (bots, humans []string) {
	for _, id := range room.PendingVoters() {
		if room.Players[id].IsBot {
			bots = append(bots, id)
		} else {
			humans = append(humans, id)
		}
	}

	return bots, humans
}

func (a *Agent) fillerPhrase() string {
	return fillerPhrases[a.rng.IntN(len(fillerPhrases))] + AUTO_REPLY_SUFFIX
}

func (a *Agent) randomTarget(room *game.Room) string {
	ids := room.PlayerIDs()
	return ids[a.rng.IntN(len(ids))]
}

// Pending 报告是否有待触发的定时器
func (a *Agent) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.timer != nil
}

func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
