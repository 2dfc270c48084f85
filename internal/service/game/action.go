package game

// Event 是提交给状态机的一次状态转移提案
type Event interface {
	ReqType() string
	// Actor 是发起者的用户 ID
	Actor() string
	// WithActor 返回替换了发起者的副本，长连接用它强制绑定连接身份
	WithActor(userID string) Event
}

type JoinGameRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Photo  string `json:"photo,omitempty"`
}

func (r JoinGameRequest) ReqType() string { return REQ_JOIN_GAME }
func (r JoinGameRequest) Actor() string   { return r.UserID }
func (r JoinGameRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type ExitGameRequest struct {
	UserID string `json:"user_id"`
}

func (r ExitGameRequest) ReqType() string { return REQ_EXIT_GAME }
func (r ExitGameRequest) Actor() string   { return r.UserID }
func (r ExitGameRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type AddBotsRequest struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

func (r AddBotsRequest) ReqType() string { return REQ_ADD_BOTS }
func (r AddBotsRequest) Actor() string   { return r.UserID }
func (r AddBotsRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type SetTopicRequest struct {
	UserID   string `json:"user_id"`
	Category string `json:"category"`
}

func (r SetTopicRequest) ReqType() string { return REQ_SET_TOPIC }
func (r SetTopicRequest) Actor() string   { return r.UserID }
func (r SetTopicRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type StartRoundRequest struct {
	UserID string `json:"user_id"`
}

func (r StartRoundRequest) ReqType() string { return REQ_START_ROUND }
func (r StartRoundRequest) Actor() string   { return r.UserID }
func (r StartRoundRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type ConfirmRevealRequest struct {
	UserID string `json:"user_id"`
}

func (r ConfirmRevealRequest) ReqType() string { return REQ_CONFIRM_REVEAL }
func (r ConfirmRevealRequest) Actor() string   { return r.UserID }
func (r ConfirmRevealRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

// 只有轮到自己时才允许发送
type DescribeRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

func (r DescribeRequest) ReqType() string { return REQ_DESCRIBE }
func (r DescribeRequest) Actor() string   { return r.UserID }
func (r DescribeRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type StartVotingRequest struct {
	UserID string `json:"user_id"`
}

func (r StartVotingRequest) ReqType() string { return REQ_START_VOTING }
func (r StartVotingRequest) Actor() string   { return r.UserID }
func (r StartVotingRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type VoteRequest struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

func (r VoteRequest) ReqType() string { return REQ_VOTE }
func (r VoteRequest) Actor() string   { return r.VoterID }
func (r VoteRequest) WithActor(id string) Event {
	r.VoterID = id
	return r
}

type LiarGuessRequest struct {
	UserID string `json:"user_id"`
	Guess  string `json:"guess"`
}

func (r LiarGuessRequest) ReqType() string { return REQ_LIAR_GUESS }
func (r LiarGuessRequest) Actor() string   { return r.UserID }
func (r LiarGuessRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type NextRoundRequest struct {
	UserID string `json:"user_id"`
}

func (r NextRoundRequest) ReqType() string { return REQ_NEXT_ROUND }
func (r NextRoundRequest) Actor() string   { return r.UserID }
func (r NextRoundRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}

type ResetRoomRequest struct {
	UserID string `json:"user_id"`
}

func (r ResetRoomRequest) ReqType() string { return REQ_RESET_ROOM }
func (r ResetRoomRequest) Actor() string   { return r.UserID }
func (r ResetRoomRequest) WithActor(id string) Event {
	r.UserID = id
	return r
}
