package websocket

import (
	"context"
	"encoding/json"
	"time"

	"liar-game-be/internal/service/dto"
	"liar-game-be/internal/service/game"
	"liar-game-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// PlayGame 是玩家的房间连接：服务端在每次提交后推送过滤后的房间状态，
// 客户端通过同一连接发送命令，命令的发起者固定为连接所属的玩家。
// 断线不等于退出，玩家可以带同一个 user_id 重连
func PlayGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		roomID := ctx.Params().Get("id")
		userID := ctx.URLParam("user_id")
		clientIP := ctx.RemoteAddr()

		if userID == "" {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{"error_code": dto.ERR_INVALID_REQUEST, "error": "缺少 user_id"})
			return
		}

		// 先订阅再读取初始状态，避免漏掉两者之间的提交
		sub := appState.RoomSvc.Subscribe(roomID)
		defer sub.Close()

		// 升级之前先确认玩家在房间里
		room, err := appState.RoomSvc.GetRoom(ctx.Request().Context(), roomID)
		if err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{"error_code": dto.ErrorCodeOf(err), "error": err.Error()})
			return
		}
		if !room.IsPlayer(userID) {
			ctx.StatusCode(iris.StatusForbidden)
			ctx.JSON(iris.Map{"error_code": dto.ERR_NOT_A_PLAYER, "error": "请先加入房间"})
			return
		}

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			return
		}

		defer conn.Close()

		appState.Monitor.IncOnlinePlayers()
		defer appState.Monitor.DecOnlinePlayers()

		zap.L().Info(
			"玩家连接房间",
			zap.String("client_ip", clientIP),
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
		)

		conn.SetReadLimit(MAX_MESSAGE)
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		replyCh := make(chan game.ResponseWrapper, REPLY_BUFFER)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		writerExitedCh := make(chan struct{})

		go func() {
			defer close(writerExitedCh)
			writeLoop(conn, room, userID, sub.C, replyCh, writeDoneCh, clientIP)
		}()

		limiter := newLimiter(appState.Cfg.WS.RateLimit, appState.Cfg.WS.Burst)

		reply := func(resp game.ResponseWrapper) {
			select {
			case replyCh <- resp:
			case <-writerExitedCh:
			}
		}

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			if !limiter.Allow() {
				reply(game.WrapErrResponse(dto.ERR_RATE_LIMITED, "请求过于频繁"))
				continue
			}

			reply(handleCommand(appState, roomID, userID, msg))
		}

		close(writeDoneCh)
		<-writerExitedCh

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
		)
	}
}

// handleCommand 解析并提交一条命令，返回给发起者的确认或错误
func handleCommand(appState *state.AppState, roomID, userID string, msg []byte) game.ResponseWrapper {
	var wrapper game.RequestWrapper

	if err := json.Unmarshal(msg, &wrapper); err != nil {
		return game.WrapErrResponse(dto.ERR_INVALID_REQUEST, "无效的请求格式")
	}

	ev, err := game.DecodeRequest(wrapper)
	if err != nil {
		return game.WrapErrResponse(dto.ErrorCodeOf(err), err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), COMMAND_TIMEOUT)
	defer cancel()

	room, err := appState.RoomSvc.Dispatch(ctx, roomID, ev.WithActor(userID))
	if err != nil {
		return game.WrapErrResponse(dto.ErrorCodeOf(err), err.Error())
	}

	ack := dto.Ack{RequestType: ev.ReqType()}
	if room != nil {
		ack.Version = room.Version
	}

	return game.WrapResponse(game.RESP_ACK, ack)
}

// writeLoop 串行写出房间状态、命令回执和心跳。
// 房间状态只会按版本递增推送，乱序到达的旧快照被丢弃
func writeLoop(
	conn *websocket.Conn,
	initial *game.Room,
	userID string,
	updates <-chan *game.Room,
	replyCh <-chan game.ResponseWrapper,
	doneCh <-chan struct{},
	clientIP string,
) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	var lastVersion int64

	write := func(resp game.ResponseWrapper) bool {
		conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
		if err := conn.WriteJSON(resp); err != nil {
			zap.L().Error(
				"发送消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return false
		}

		return true
	}

	pushRoom := func(room *game.Room) bool {
		if room.Version <= lastVersion {
			return true
		}
		lastVersion = room.Version

		return write(game.WrapResponse(game.RESP_ROOM_STATE, game.ViewFor(room, userID)))
	}

	if !pushRoom(initial) {
		conn.Close()
		return
	}

	for {
		select {
		case <-doneCh:
			zap.L().Debug(
				"WebSocket写入协程退出",
				zap.String("client_ip", clientIP),
			)
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				conn.Close()
				return
			}

			zap.L().Debug(
				"发送心跳",
				zap.String("client_ip", clientIP),
			)

		case room, ok := <-updates:
			// 房间已被删除
			if !ok {
				closeConn(conn, "room closed")
				return
			}

			if !pushRoom(room) {
				conn.Close()
				return
			}

			// 玩家已离开房间，推送最后一次状态后断开
			if !room.IsPlayer(userID) {
				closeConn(conn, "left room")
				return
			}

		case resp := <-replyCh:
			if !write(resp) {
				conn.Close()
				return
			}
		}
	}
}

func closeConn(conn *websocket.Conn, reason string) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(WRITE_TIMEOUT),
	)
	conn.Close()
}
