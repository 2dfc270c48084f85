package dto

// 玩家的公开资料，创建和加入房间时提交
type Profile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Photo  string `json:"photo,omitempty"`
}
