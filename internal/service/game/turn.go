package game

import "strings"

// submitDescription 只接受当前轮次玩家的描述。
// 轮次的判断完全基于事务读到的快照，客户端持有的旧轮次不会被接受
func submitDescription(ctx *StageContext, req DescribeRequest) error {
	room := ctx.Room

	current := room.CurrentTurnID()
	if current == "" || req.UserID != current {
		return ErrNotYourTurn
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return ErrEmptyText
	}

	room.Descriptions = append(room.Descriptions, Description{
		UserID: req.UserID,
		Name:   room.Players[req.UserID].Name,
		Text:   text,
	})

	advanceTurn(ctx)

	return nil
}

func advanceTurn(ctx *StageContext) {
	room := ctx.Room

	room.CurrentTurnIndex++
	room.PhaseVersion++

	if room.CurrentTurnIndex >= len(room.TurnOrder) {
		ctx.SwitchTo(PHASE_DISCUSSION)
	}
}

// dropFutureTurns 把离开的玩家从尚未发言的轮次中移除
func dropFutureTurns(ctx *StageContext, userID string) {
	room := ctx.Room

	if room.Phase != PHASE_REVEAL && room.Phase != PHASE_DESCRIBING {
		return
	}

	from := room.CurrentTurnIndex
	if room.Phase == PHASE_REVEAL {
		from = 0
	}

	kept := make([]string, 0, len(room.TurnOrder))
	removed := false

	for i, id := range room.TurnOrder {
		if i >= from && id == userID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}

	if !removed {
		return
	}

	room.TurnOrder = kept

	if room.Phase == PHASE_DESCRIBING {
		room.PhaseVersion++
		if room.CurrentTurnIndex >= len(room.TurnOrder) {
			ctx.SwitchTo(PHASE_DISCUSSION)
		}
	}
}
