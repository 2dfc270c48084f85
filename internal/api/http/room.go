package http

import (
	"context"
	"time"

	"liar-game-be/internal/service/dto"
	"liar-game-be/internal/service/game"
	"liar-game-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const REQUEST_TIMEOUT = 5 * time.Second

func statusOf(code string) int {
	switch code {
	case dto.ERR_ROOM_NOT_FOUND:
		return iris.StatusNotFound
	case dto.ERR_HOST_ONLY, dto.ERR_NOT_A_PLAYER, dto.ERR_NOT_THE_LIAR:
		return iris.StatusForbidden
	case dto.ERR_ROOM_FULL, dto.ERR_WRONG_PHASE, dto.ERR_NOT_YOUR_TURN,
		dto.ERR_ALREADY_VOTED, dto.ERR_MATCH_OVER:
		return iris.StatusConflict
	case dto.ERR_CONFLICT, dto.ERR_UNAVAILABLE:
		return iris.StatusServiceUnavailable
	case dto.ERR_INTERNAL:
		return iris.StatusInternalServerError
	default:
		return iris.StatusBadRequest
	}
}

func writeError(ctx iris.Context, err error) {
	code := dto.ErrorCodeOf(err)

	if code == dto.ERR_INTERNAL {
		zap.L().Error("请求处理失败", zap.String("path", ctx.Path()), zap.Error(err))
	}

	ctx.StatusCode(statusOf(code))
	ctx.JSON(iris.Map{
		"error_code": code,
		"error":      err.Error(),
		"retryable":  dto.Retryable(code),
	})
}

func writeBadRequest(ctx iris.Context) {
	ctx.StatusCode(iris.StatusBadRequest)
	ctx.JSON(iris.Map{
		"error_code": dto.ERR_INVALID_REQUEST,
		"error":      "请求参数无效",
	})
}

func requestContext(ctx iris.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request().Context(), REQUEST_TIMEOUT)
}

func ListTopics(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(dto.TopicsResponse{
			Topics: appState.RoomSvc.ListTopics(),
		})
	}
}

func CreateRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateRoomRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		reqCtx, cancel := requestContext(ctx)
		defer cancel()

		resp, err := appState.RoomSvc.CreateRoom(reqCtx, req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(resp)
	}
}

func GetRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		reqCtx, cancel := requestContext(ctx)
		defer cancel()

		view, err := appState.RoomSvc.GetView(reqCtx, ctx.Params().Get("id"), ctx.URLParam("user_id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(view)
	}
}

func JoinRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var profile dto.Profile

		if err := ctx.ReadJSON(&profile); err != nil {
			writeBadRequest(ctx)
			return
		}

		reqCtx, cancel := requestContext(ctx)
		defer cancel()

		resp, err := appState.RoomSvc.JoinRoom(reqCtx, dto.JoinRoomRequest{
			RoomID:  ctx.Params().Get("id"),
			Profile: profile,
		})
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func LeaveRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.LeaveRoomRequest

		if err := ctx.ReadJSON(&req); err != nil || req.UserID == "" {
			writeBadRequest(ctx)
			return
		}
		req.RoomID = ctx.Params().Get("id")

		reqCtx, cancel := requestContext(ctx)
		defer cancel()

		if err := appState.RoomSvc.LeaveRoom(reqCtx, req); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusNoContent)
	}
}

// RoomAction 是命令面的 HTTP 入口，请求体与 WebSocket 命令相同。
// 动作的发起者总是 user_id 参数，请求体中的身份字段会被覆盖
func RoomAction(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		userID := ctx.URLParam("user_id")
		if userID == "" {
			writeBadRequest(ctx)
			return
		}

		var wrapper game.RequestWrapper

		if err := ctx.ReadJSON(&wrapper); err != nil {
			writeBadRequest(ctx)
			return
		}

		ev, err := game.DecodeRequest(wrapper)
		if err != nil {
			writeError(ctx, err)
			return
		}

		reqCtx, cancel := requestContext(ctx)
		defer cancel()

		roomID := ctx.Params().Get("id")

		room, err := appState.RoomSvc.Dispatch(reqCtx, roomID, ev.WithActor(userID))
		if err != nil {
			writeError(ctx, err)
			return
		}

		// 房间因最后一名玩家离开而被删除
		if room == nil {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}

		ctx.JSON(dto.ActionResponse{
			Room: game.ViewFor(room, userID),
		})
	}
}
