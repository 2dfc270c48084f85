package game

import (
	"slices"
	"sort"
	"time"
)

// 房间阶段
const (
	PHASE_LOBBY      = "lobby"
	PHASE_REVEAL     = "reveal"
	PHASE_DESCRIBING = "describing"
	PHASE_DISCUSSION = "discussion"
	PHASE_VOTING     = "voting"
	PHASE_LIAR_GUESS = "liar_guess"
	PHASE_RESULT     = "result"
)

// 回合胜利方
const (
	WINNER_LIAR      = "liar"
	WINNER_CIVILIANS = "civilians"
)

type Player struct {
	Name     string    `json:"name"`
	Photo    string    `json:"photo,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
	IsBot    bool      `json:"is_bot,omitempty"`
}

type Description struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// Room 是一个房间完整的共享状态，只能通过状态机修改
type Room struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	HostID  string `json:"host_id"`
	Phase   string `json:"phase"`
	// 阶段或发言轮次每推进一次就加一，托管机器人用它判断定时器是否过期
	PhaseVersion int64 `json:"phase_version"`
	Round        int   `json:"round"`

	Players  map[string]Player `json:"players"`
	Scores   map[string]int    `json:"scores"`
	MaxScore int               `json:"max_score"`

	TopicCategory string `json:"topic_category"`
	TopicName     string `json:"topic_name,omitempty"`
	SecretWord    string `json:"secret_word,omitempty"`
	LiarID        string `json:"liar_id,omitempty"`

	TurnOrder        []string      `json:"turn_order"`
	CurrentTurnIndex int           `json:"current_turn_index"`
	Descriptions     []Description `json:"descriptions"`

	Votes        map[string]string `json:"votes"`
	VotedOutID   string            `json:"voted_out_id,omitempty"`
	RoundWinner  string            `json:"round_winner,omitempty"`
	TieCount     int               `json:"tie_count"`
	MaxTieRounds int               `json:"max_tie_rounds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRoom(id, hostID string, host Player, maxScore int, now time.Time) *Room {
	host.JoinedAt = now

	return &Room{
		ID:            id,
		HostID:        hostID,
		Phase:         PHASE_LOBBY,
		Players:       map[string]Player{hostID: host},
		Scores:        map[string]int{hostID: 0},
		MaxScore:      maxScore,
		TopicCategory: TOPIC_RANDOM,
		TurnOrder:     make([]string, 0),
		Descriptions:  make([]Description, 0),
		Votes:         make(map[string]string),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone 深拷贝，状态机永远在副本上工作
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}

	c := *r
	c.Players = make(map[string]Player, len(r.Players))
	for id, p := range r.Players {
		c.Players[id] = p
	}

	c.Scores = make(map[string]int, len(r.Scores))
	for id, s := range r.Scores {
		c.Scores[id] = s
	}

	c.Votes = make(map[string]string, len(r.Votes))
	for id, t := range r.Votes {
		c.Votes[id] = t
	}

	c.TurnOrder = slices.Clone(r.TurnOrder)
	if c.TurnOrder == nil {
		c.TurnOrder = make([]string, 0)
	}

	c.Descriptions = slices.Clone(r.Descriptions)
	if c.Descriptions == nil {
		c.Descriptions = make([]Description, 0)
	}

	return &c
}

// PlayerIDs 按加入时间排序，时间相同再按 ID 排序
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		pi, pj := r.Players[ids[i]], r.Players[ids[j]]
		if pi.JoinedAt.Equal(pj.JoinedAt) {
			return ids[i] < ids[j]
		}
		return pi.JoinedAt.Before(pj.JoinedAt)
	})

	return ids
}

func (r *Room) IsPlayer(userID string) bool {
	_, ok := r.Players[userID]
	return ok
}

// CurrentTurnID 仅在发言阶段有意义
func (r *Room) CurrentTurnID() string {
	if r.Phase != PHASE_DESCRIBING {
		return ""
	}
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.TurnOrder) {
		return ""
	}

	return r.TurnOrder[r.CurrentTurnIndex]
}

func (r *Room) HighestScore() int {
	highest := 0
	for _, s := range r.Scores {
		if s > highest {
			highest = s
		}
	}

	return highest
}

func (r *Room) MatchOver() bool {
	return r.HighestScore() >= r.MaxScore
}

// PendingVoters 返回还没有投票的玩家，按加入顺序
func (r *Room) PendingVoters() []string {
	pending := make([]string, 0)
	for _, id := range r.PlayerIDs() {
		if _, voted := r.Votes[id]; !voted {
			pending = append(pending, id)
		}
	}

	return pending
}

func (r *Room) HumanCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsBot {
			n++
		}
	}

	return n
}
