package game

import (
	"strings"
	"time"
)

// 一局游戏分为 7 个阶段：
// 1. 大厅（lobby）：玩家加入房间，房主选择题库，开始回合
// 2. 翻牌（reveal）：抽出卧底和题词，每个人查看自己的牌，房主确认后开始描述
// 3. 描述（describing）：按随机顺序轮流描述题词，每人一次
// 4. 讨论（discussion）：自由讨论，房主发起投票
// 5. 投票（voting）：每人一票，全部投完立即结算
// 6. 卧底猜词（liar_guess）：卧底被投出后有一次猜词机会
// 7. 结果（result）：公布结果，房主开始下一回合或重置房间
type StageHandler interface {
	Stage() string

	OnEnter(ctx *StageContext)
	OnHandle(ctx *StageContext, ev Event) error
	OnExit(ctx *StageContext)
}

// StageContext 是一次状态转移的工作区
type StageContext struct {
	Room       *Room
	Rand       Rand
	Now        time.Time
	MaxPlayers int

	next string
}

// SwitchTo 挂起一次阶段切换，由状态机在事件处理完成后执行
func (ctx *StageContext) SwitchTo(phase string) {
	ctx.next = phase
}

func (ctx *StageContext) requireHost(userID string) error {
	if userID == "" || userID != ctx.Room.HostID {
		return ErrHostOnly
	}

	return nil
}

// 大厅阶段
type lobbyStageHandler struct{}

func NewLobbyStageHandler() *lobbyStageHandler {
	return &lobbyStageHandler{}
}

func (lsh *lobbyStageHandler) Stage() string {
	return PHASE_LOBBY
}

func (lsh *lobbyStageHandler) OnEnter(ctx *StageContext) {
	clearRoundState(ctx.Room)
}

func (lsh *lobbyStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	switch req := ev.(type) {
	case SetTopicRequest:
		if err := ctx.requireHost(req.UserID); err != nil {
			return err
		}
		if !IsKnownTopic(req.Category) {
			return ErrUnknownTopic
		}

		ctx.Room.TopicCategory = req.Category
		return nil

	case StartRoundRequest:
		if err := ctx.requireHost(req.UserID); err != nil {
			return err
		}
		if len(ctx.Room.Players) < 1 {
			return ErrNotEnoughPlayers
		}
		if ctx.Room.MatchOver() {
			return ErrMatchOver
		}

		ctx.SwitchTo(PHASE_REVEAL)
		return nil
	}

	return ErrWrongPhase
}

func (lsh *lobbyStageHandler) OnExit(ctx *StageContext) {
}

// 翻牌阶段，进入时完成一局的全部抽签
type revealStageHandler struct{}

func NewRevealStageHandler() *revealStageHandler {
	return &revealStageHandler{}
}

func (rsh *revealStageHandler) Stage() string {
	return PHASE_REVEAL
}

func (rsh *revealStageHandler) OnEnter(ctx *StageContext) {
	startRound(ctx)
}

func (rsh *revealStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	req, ok := ev.(ConfirmRevealRequest)
	if !ok {
		return ErrWrongPhase
	}
	if err := ctx.requireHost(req.UserID); err != nil {
		return err
	}

	ctx.SwitchTo(PHASE_DESCRIBING)
	return nil
}

func (rsh *revealStageHandler) OnExit(ctx *StageContext) {
}

// 描述阶段
type describeStageHandler struct{}

func NewDescribeStageHandler() *describeStageHandler {
	return &describeStageHandler{}
}

func (dsh *describeStageHandler) Stage() string {
	return PHASE_DESCRIBING
}

func (dsh *describeStageHandler) OnEnter(ctx *StageContext) {
	ctx.Room.CurrentTurnIndex = 0
	ctx.Room.Descriptions = make([]Description, 0, len(ctx.Room.TurnOrder))

	// 翻牌期间所有人都离开了发言顺序
	if len(ctx.Room.TurnOrder) == 0 {
		ctx.SwitchTo(PHASE_DISCUSSION)
	}
}

func (dsh *describeStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	req, ok := ev.(DescribeRequest)
	if !ok {
		return ErrWrongPhase
	}

	return submitDescription(ctx, req)
}

func (dsh *describeStageHandler) OnExit(ctx *StageContext) {
}

// 讨论阶段
type discussStageHandler struct{}

func NewDiscussStageHandler() *discussStageHandler {
	return &discussStageHandler{}
}

func (dsh *discussStageHandler) Stage() string {
	return PHASE_DISCUSSION
}

func (dsh *discussStageHandler) OnEnter(ctx *StageContext) {
}

func (dsh *discussStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	req, ok := ev.(StartVotingRequest)
	if !ok {
		return ErrWrongPhase
	}
	if err := ctx.requireHost(req.UserID); err != nil {
		return err
	}

	ctx.SwitchTo(PHASE_VOTING)
	return nil
}

func (dsh *discussStageHandler) OnExit(ctx *StageContext) {
}

// 投票阶段
type voteStageHandler struct{}

func NewVoteStageHandler() *voteStageHandler {
	return &voteStageHandler{}
}

func (vsh *voteStageHandler) Stage() string {
	return PHASE_VOTING
}

func (vsh *voteStageHandler) OnEnter(ctx *StageContext) {
	ctx.Room.Votes = make(map[string]string)
}

func (vsh *voteStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	req, ok := ev.(VoteRequest)
	if !ok {
		return ErrWrongPhase
	}

	return castVote(ctx, req)
}

func (vsh *voteStageHandler) OnExit(ctx *StageContext) {
}

// 卧底猜词阶段
type guessStageHandler struct{}

func NewGuessStageHandler() *guessStageHandler {
	return &guessStageHandler{}
}

func (gsh *guessStageHandler) Stage() string {
	return PHASE_LIAR_GUESS
}

func (gsh *guessStageHandler) OnEnter(ctx *StageContext) {
}

func (gsh *guessStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	req, ok := ev.(LiarGuessRequest)
	if !ok {
		return ErrWrongPhase
	}

	room := ctx.Room
	if req.UserID == "" || req.UserID != room.LiarID {
		return ErrNotTheLiar
	}

	guess := strings.TrimSpace(req.Guess)
	if guess == "" {
		return ErrEmptyText
	}

	// 平民的分数在投票时已经加过，猜错不再加分
	if guess == strings.TrimSpace(room.SecretWord) {
		room.Scores[room.LiarID]++
		room.RoundWinner = WINNER_LIAR
	} else {
		room.RoundWinner = WINNER_CIVILIANS
	}

	ctx.SwitchTo(PHASE_RESULT)
	return nil
}

func (gsh *guessStageHandler) OnExit(ctx *StageContext) {
}

// 结果阶段
type resultStageHandler struct{}

func NewResultStageHandler() *resultStageHandler {
	return &resultStageHandler{}
}

func (rsh *resultStageHandler) Stage() string {
	return PHASE_RESULT
}

func (rsh *resultStageHandler) OnEnter(ctx *StageContext) {
}

func (rsh *resultStageHandler) OnHandle(ctx *StageContext, ev Event) error {
	var actor string

	switch req := ev.(type) {
	case NextRoundRequest:
		actor = req.UserID
	case StartRoundRequest:
		actor = req.UserID
	default:
		return ErrWrongPhase
	}

	if err := ctx.requireHost(actor); err != nil {
		return err
	}

	// 有人达到目标分后只能重置
	if ctx.Room.MatchOver() {
		return ErrMatchOver
	}

	ctx.SwitchTo(PHASE_REVEAL)
	return nil
}

func (rsh *resultStageHandler) OnExit(ctx *StageContext) {
}

// startRound 抽取卧底、题词和发言顺序
func startRound(ctx *StageContext) {
	room := ctx.Room
	ids := room.PlayerIDs()

	topic, word := pickWord(room.TopicCategory, ctx.Rand)

	room.Round++
	room.TopicName = topic.Name
	room.SecretWord = word
	room.LiarID = ids[ctx.Rand.IntN(len(ids))]

	order := append([]string(nil), ids...)
	shuffle(order, ctx.Rand)
	room.TurnOrder = order

	room.CurrentTurnIndex = 0
	room.Descriptions = make([]Description, 0, len(order))
	room.Votes = make(map[string]string)
	room.VotedOutID = ""
	room.RoundWinner = ""
	room.TieCount = 0
}

func clearRoundState(room *Room) {
	room.TopicName = ""
	room.SecretWord = ""
	room.LiarID = ""
	room.TurnOrder = make([]string, 0)
	room.CurrentTurnIndex = 0
	room.Descriptions = make([]Description, 0)
	room.Votes = make(map[string]string)
	room.VotedOutID = ""
	room.RoundWinner = ""
	room.TieCount = 0
}

func onResetRoom(ctx *StageContext, req ResetRoomRequest) error {
	if err := ctx.requireHost(req.UserID); err != nil {
		return err
	}

	for id := range ctx.Room.Scores {
		if !ctx.Room.IsPlayer(id) {
			delete(ctx.Room.Scores, id)
			continue
		}
		ctx.Room.Scores[id] = 0
	}
	ctx.Room.Round = 0

	ctx.SwitchTo(PHASE_LOBBY)
	return nil
}
