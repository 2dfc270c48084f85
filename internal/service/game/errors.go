package game

import "errors"

// 校验类错误：请求被拒绝，房间状态不变，只返回给发起者
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrHostOnly         = errors.New("only the host can do this")
	ErrWrongPhase       = errors.New("action not allowed in current phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrEmptyText        = errors.New("text must not be empty")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrNotAPlayer       = errors.New("not a player of this room")
	ErrNotTheLiar       = errors.New("only the liar can guess")
	ErrMatchOver        = errors.New("match is over, reset the room")
	ErrUnknownTopic     = errors.New("unknown topic category")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrInvalidRequest   = errors.New("invalid request")
)

var rejections = []error{
	ErrRoomNotFound,
	ErrRoomFull,
	ErrHostOnly,
	ErrWrongPhase,
	ErrNotYourTurn,
	ErrEmptyText,
	ErrAlreadyVoted,
	ErrNotAPlayer,
	ErrNotTheLiar,
	ErrMatchOver,
	ErrUnknownTopic,
	ErrNotEnoughPlayers,
	ErrInvalidRequest,
}

// IsRejection 判断错误是否是规则拒绝（而不是存储或网络故障）
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}

	return false
}
