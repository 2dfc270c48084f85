package dto

import "liar-game-be/internal/service/game"

type CreateRoomRequest struct {
	// UserID 可空，为空时由服务端生成
	Profile
	MaxScore int `json:"max_score"`
}

type CreateRoomResponse struct {
	RoomID string        `json:"room_id"`
	UserID string        `json:"user_id"`
	Room   game.RoomView `json:"room"`
}

// 加入在任何阶段都允许，重复加入只会更新昵称和头像
type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
	Profile
}

type JoinRoomResponse struct {
	Room game.RoomView `json:"room"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type TopicsResponse struct {
	Topics []game.Topic `json:"topics"`
}
