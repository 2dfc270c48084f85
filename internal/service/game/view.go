package game

// 卧底看到的题词占位符
const HIDDEN_WORD = "?"

type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Photo  string `json:"photo,omitempty"`
	IsBot  bool   `json:"is_bot,omitempty"`
	IsHost bool   `json:"is_host,omitempty"`
	Score  int    `json:"score"`
	Voted  bool   `json:"voted,omitempty"`
}

// RoomView 是按观看者过滤后的房间状态，推送给客户端的永远是它
type RoomView struct {
	ID            string        `json:"id"`
	Version       int64         `json:"version"`
	Phase         string        `json:"phase"`
	Round         int           `json:"round"`
	HostID        string        `json:"host_id"`
	Players       []PlayerView  `json:"players"`
	MaxScore      int           `json:"max_score"`
	MatchOver     bool          `json:"match_over"`
	TopicCategory string        `json:"topic_category"`
	TopicName     string        `json:"topic_name,omitempty"`
	Word          string        `json:"word,omitempty"`
	IsLiar        bool          `json:"is_liar"`
	LiarID        string        `json:"liar_id,omitempty"`
	TurnOrder     []string      `json:"turn_order"`
	CurrentTurnID string        `json:"current_turn_id,omitempty"`
	Descriptions  []Description `json:"descriptions"`
	// 投票结束前只公开谁投过票，不公开投给了谁
	Votes       map[string]string `json:"votes,omitempty"`
	VotedOutID  string            `json:"voted_out_id,omitempty"`
	RoundWinner string            `json:"round_winner,omitempty"`
}

// ViewFor 生成 viewerID 能看到的房间状态
func ViewFor(room *Room, viewerID string) RoomView {
	view := RoomView{
		ID:            room.ID,
		Version:       room.Version,
		Phase:         room.Phase,
		Round:         room.Round,
		HostID:        room.HostID,
		Players:       make([]PlayerView, 0, len(room.Players)),
		MaxScore:      room.MaxScore,
		MatchOver:     room.MatchOver(),
		TopicCategory: room.TopicCategory,
		TopicName:     room.TopicName,
		TurnOrder:     append([]string{}, room.TurnOrder...),
		CurrentTurnID: room.CurrentTurnID(),
		Descriptions:  append([]Description{}, room.Descriptions...),
		VotedOutID:    room.VotedOutID,
		RoundWinner:   room.RoundWinner,
	}

	for _, id := range room.PlayerIDs() {
		p := room.Players[id]
		_, voted := room.Votes[id]

		view.Players = append(view.Players, PlayerView{
			ID:     id,
			Name:   p.Name,
			Photo:  p.Photo,
			IsBot:  p.IsBot,
			IsHost: id == room.HostID,
			Score:  room.Scores[id],
			Voted:  voted,
		})
	}

	if room.SecretWord != "" {
		view.IsLiar = viewerID != "" && viewerID == room.LiarID
		// 卧底和房间外的人都看不到题词
		if view.IsLiar || !room.IsPlayer(viewerID) {
			view.Word = HIDDEN_WORD
		} else {
			view.Word = room.SecretWord
		}
	}

	switch room.Phase {
	case PHASE_LIAR_GUESS:
		// 被投出的就是卧底，这时公开身份
		view.LiarID = room.LiarID
	case PHASE_RESULT:
		// 回合结束后题词对所有人公开
		view.LiarID = room.LiarID
		view.Word = room.SecretWord
		view.Votes = copyVotes(room.Votes)
	}

	return view
}

func copyVotes(votes map[string]string) map[string]string {
	c := make(map[string]string, len(votes))
	for k, v := range votes {
		c[k] = v
	}

	return c
}
