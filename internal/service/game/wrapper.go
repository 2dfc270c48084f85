package game

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME      = "JoinGame"
	REQ_EXIT_GAME      = "ExitGame"
	REQ_ADD_BOTS       = "AddBots"
	REQ_SET_TOPIC      = "SetTopic"
	REQ_START_ROUND    = "StartRound"
	REQ_CONFIRM_REVEAL = "ConfirmReveal"
	REQ_DESCRIBE       = "Describe"
	REQ_START_VOTING   = "StartVoting"
	REQ_VOTE           = "Vote"
	REQ_LIAR_GUESS     = "LiarGuess"
	REQ_NEXT_ROUND     = "NextRound"
	REQ_RESET_ROOM     = "ResetRoom"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`
}

func WrapRequest(ev Event) RequestWrapper {
	return RequestWrapper{
		ReqType: ev.ReqType(),
		Data:    mustMarshal(ev),
	}
}

func tryUnwrap[T Event](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	var req T

	if len(wrapper.Data) > 0 {
		if err := json.Unmarshal(wrapper.Data, &req); err != nil {
			zap.L().Error(
				"Failed to unwrap request",
				zap.Error(err),
				zap.String("request_type", reqType),
			)
			return nil
		}
	}

	return &req
}

func TryUnwrapVoteRequest(wrapper RequestWrapper) *VoteRequest {
	return tryUnwrap[VoteRequest](wrapper, REQ_VOTE)
}

func TryUnwrapDescribeRequest(wrapper RequestWrapper) *DescribeRequest {
	return tryUnwrap[DescribeRequest](wrapper, REQ_DESCRIBE)
}

// DecodeRequest 把客户端的包装请求解析为状态机事件
func DecodeRequest(wrapper RequestWrapper) (Event, error) {
	var ev Event

	switch wrapper.ReqType {
	case REQ_JOIN_GAME:
		if req := tryUnwrap[JoinGameRequest](wrapper, REQ_JOIN_GAME); req != nil {
			ev = *req
		}
	case REQ_EXIT_GAME:
		if req := tryUnwrap[ExitGameRequest](wrapper, REQ_EXIT_GAME); req != nil {
			ev = *req
		}
	case REQ_ADD_BOTS:
		if req := tryUnwrap[AddBotsRequest](wrapper, REQ_ADD_BOTS); req != nil {
			ev = *req
		}
	case REQ_SET_TOPIC:
		if req := tryUnwrap[SetTopicRequest](wrapper, REQ_SET_TOPIC); req != nil {
			ev = *req
		}
	case REQ_START_ROUND:
		if req := tryUnwrap[StartRoundRequest](wrapper, REQ_START_ROUND); req != nil {
			ev = *req
		}
	case REQ_CONFIRM_REVEAL:
		if req := tryUnwrap[ConfirmRevealRequest](wrapper, REQ_CONFIRM_REVEAL); req != nil {
			ev = *req
		}
	case REQ_DESCRIBE:
		if req := TryUnwrapDescribeRequest(wrapper); req != nil {
			ev = *req
		}
	case REQ_START_VOTING:
		if req := tryUnwrap[StartVotingRequest](wrapper, REQ_START_VOTING); req != nil {
			ev = *req
		}
	case REQ_VOTE:
		if req := TryUnwrapVoteRequest(wrapper); req != nil {
			ev = *req
		}
	case REQ_LIAR_GUESS:
		if req := tryUnwrap[LiarGuessRequest](wrapper, REQ_LIAR_GUESS); req != nil {
			ev = *req
		}
	case REQ_NEXT_ROUND:
		if req := tryUnwrap[NextRoundRequest](wrapper, REQ_NEXT_ROUND); req != nil {
			ev = *req
		}
	case REQ_RESET_ROOM:
		if req := tryUnwrap[ResetRoomRequest](wrapper, REQ_RESET_ROOM); req != nil {
			ev = *req
		}
	default:
		return nil, fmt.Errorf("%w: unknown request type %q", ErrInvalidRequest, wrapper.ReqType)
	}

	if ev == nil {
		return nil, fmt.Errorf("%w: malformed %s payload", ErrInvalidRequest, wrapper.ReqType)
	}

	return ev, nil
}

// 响应类型
const (
	RESP_ERROR      = "Error"
	RESP_ACK        = "Ack"
	RESP_ROOM_STATE = "RoomState"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data,omitempty"`
	ErrCode  string `json:"error_code,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(code, errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrCode:  code,
		ErrMsg:   errMsg,
	}
}
