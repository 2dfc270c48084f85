package dto

import (
	"context"
	"errors"

	"liar-game-be/internal/service/game"
	"liar-game-be/internal/store"
)

// 返回给客户端的错误码，客户端据此决定提示文案以及是否重试
const (
	ERR_ROOM_NOT_FOUND     = "RoomNotFound"
	ERR_ROOM_FULL          = "RoomFull"
	ERR_HOST_ONLY          = "HostOnly"
	ERR_WRONG_PHASE        = "WrongPhase"
	ERR_NOT_YOUR_TURN      = "NotYourTurn"
	ERR_EMPTY_TEXT         = "EmptyText"
	ERR_ALREADY_VOTED      = "AlreadyVoted"
	ERR_NOT_A_PLAYER       = "NotAPlayer"
	ERR_NOT_THE_LIAR       = "NotTheLiar"
	ERR_MATCH_OVER         = "MatchOver"
	ERR_UNKNOWN_TOPIC      = "UnknownTopic"
	ERR_NOT_ENOUGH_PLAYERS = "NotEnoughPlayers"
	ERR_INVALID_REQUEST    = "InvalidRequest"
	ERR_RATE_LIMITED       = "RateLimited"
	ERR_CONFLICT           = "Conflict"
	ERR_UNAVAILABLE        = "Unavailable"
	ERR_INTERNAL           = "Internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrRoomNotFound, ERR_ROOM_NOT_FOUND},
	{store.ErrNotFound, ERR_ROOM_NOT_FOUND},
	{game.ErrRoomFull, ERR_ROOM_FULL},
	{game.ErrHostOnly, ERR_HOST_ONLY},
	{game.ErrWrongPhase, ERR_WRONG_PHASE},
	{game.ErrNotYourTurn, ERR_NOT_YOUR_TURN},
	{game.ErrEmptyText, ERR_EMPTY_TEXT},
	{game.ErrAlreadyVoted, ERR_ALREADY_VOTED},
	{game.ErrNotAPlayer, ERR_NOT_A_PLAYER},
	{game.ErrNotTheLiar, ERR_NOT_THE_LIAR},
	{game.ErrMatchOver, ERR_MATCH_OVER},
	{game.ErrUnknownTopic, ERR_UNKNOWN_TOPIC},
	{game.ErrNotEnoughPlayers, ERR_NOT_ENOUGH_PLAYERS},
	{game.ErrInvalidRequest, ERR_INVALID_REQUEST},
	{store.ErrConflict, ERR_CONFLICT},
	{context.DeadlineExceeded, ERR_UNAVAILABLE},
}

// ErrorCodeOf 把服务层错误映射为稳定的错误码
func ErrorCodeOf(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}

	return ERR_INTERNAL
}

// Retryable 表示客户端可以原样重发同一个动作
func Retryable(code string) bool {
	return code == ERR_CONFLICT || code == ERR_UNAVAILABLE
}

type ActionResponse struct {
	Room game.RoomView `json:"room"`
}

// Ack 是命令提交成功后回给发起者的确认
type Ack struct {
	RequestType string `json:"request_type"`
	Version     int64  `json:"version"`
}
