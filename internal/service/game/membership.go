package game

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DEFAULT_BOT_COUNT = 10

func botPhoto(botID string) string {
	return "https://api.dicebear.com/7.x/bottts/svg?seed=" + botID
}

// onPlayerJoin 任何阶段都可以加入。重复加入只更新昵称和头像，
// 不会重置分数和加入时间，因此发言顺序在重连后保持不变
func onPlayerJoin(ctx *StageContext, req JoinGameRequest) error {
	room := ctx.Room

	name := strings.TrimSpace(req.Name)
	if req.UserID == "" || name == "" {
		return ErrInvalidRequest
	}

	if existing, ok := room.Players[req.UserID]; ok {
		existing.Name = name
		if req.Photo != "" {
			existing.Photo = req.Photo
		}
		room.Players[req.UserID] = existing

		zap.L().Debug(
			"玩家重复加入，仅更新资料",
			zap.String("room_id", room.ID),
			zap.String("player_id", req.UserID),
		)

		return nil
	}

	if len(room.Players) >= ctx.MaxPlayers {
		return ErrRoomFull
	}

	room.Players[req.UserID] = Player{
		Name:     name,
		Photo:    req.Photo,
		JoinedAt: ctx.Now,
	}

	if _, ok := room.Scores[req.UserID]; !ok {
		room.Scores[req.UserID] = 0
	}

	return nil
}

// onAddBots 房主在大厅里批量添加机器人，满员即停止
func onAddBots(ctx *StageContext, req AddBotsRequest) error {
	room := ctx.Room

	if err := ctx.requireHost(req.UserID); err != nil {
		return err
	}
	if room.Phase != PHASE_LOBBY {
		return ErrWrongPhase
	}

	count := req.Count
	if count <= 0 {
		count = DEFAULT_BOT_COUNT
	}

	existingBots := len(room.Players) - room.HumanCount()
	added := 0

	for i := 1; i <= count && len(room.Players) < ctx.MaxPlayers; i++ {
		botID := "bot_" + GenShortID()
		if room.IsPlayer(botID) {
			continue
		}

		room.Players[botID] = Player{
			Name:  fmt.Sprintf("🤖 Bot %d", existingBots+i),
			Photo: botPhoto(botID),
			// 错开加入时间，保证机器人之间的顺序稳定
			JoinedAt: ctx.Now.Add(time.Duration(i) * time.Millisecond),
			IsBot:    true,
		}
		room.Scores[botID] = 0
		added++
	}

	if added == 0 {
		return ErrRoomFull
	}

	return nil
}

// onPlayerExit 移除玩家及其相关的投票，不删除历史描述，也不扣分
func onPlayerExit(ctx *StageContext, req ExitGameRequest) error {
	room := ctx.Room

	if !room.IsPlayer(req.UserID) {
		return ErrNotAPlayer
	}

	delete(room.Players, req.UserID)
	delete(room.Votes, req.UserID)
	for voter, target := range room.Votes {
		if target == req.UserID {
			delete(room.Votes, voter)
		}
	}

	if len(room.Players) == 0 {
		return nil
	}

	if room.HostID == req.UserID {
		room.HostID = nextHost(room)
	}

	if room.LiarID == req.UserID {
		switch room.Phase {
		case PHASE_REVEAL, PHASE_DESCRIBING, PHASE_DISCUSSION, PHASE_VOTING:
			// 卧底在回合中离开，这一回合作废，回到大厅，分数保留
			ctx.SwitchTo(PHASE_LOBBY)
			return nil
		case PHASE_LIAR_GUESS:
			// 平民已经得分，卧底放弃猜词
			room.RoundWinner = WINNER_CIVILIANS
			ctx.SwitchTo(PHASE_RESULT)
			return nil
		}
	}

	dropFutureTurns(ctx, req.UserID)

	if room.Phase == PHASE_VOTING && votingComplete(room) {
		resolveVotes(ctx)
	}

	return nil
}

// nextHost 优先选择最早加入的真人玩家
func nextHost(room *Room) string {
	ids := room.PlayerIDs()
	for _, id := range ids {
		if !room.Players[id].IsBot {
			return id
		}
	}

	return ids[0]
}
