package http

import (
	"fmt"
	"os"

	"liar-game-be/internal/api/http/websocket"
	"liar-game-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// NewApp 组装路由，不负责监听
func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	if dir := appState.Cfg.StaticDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			app.HandleDir(
				"/",
				iris.Dir(dir),
				iris.DirOptions{
					IndexName: "index.html",
					SPA:       true,
					Compress:  true,
				},
			)
		} else {
			zap.S().Warnf("前端目录 %s 不存在，跳过静态文件挂载", dir)
		}
	}

	app.Get("/metrics", iris.FromStd(appState.Monitor.Handler()))

	api := app.Party("/api/v1")

	api.Get("/topics", ListTopics(appState))

	api.Post("/rooms", CreateRoom(appState))
	api.Get("/rooms/{id}", GetRoom(appState))
	api.Post("/rooms/{id}/join", JoinRoom(appState))
	api.Post("/rooms/{id}/leave", LeaveRoom(appState))
	api.Post("/rooms/{id}/actions", RoomAction(appState))

	api.Get("/ws/rooms/{id}", websocket.PlayGame(appState))

	return app
}

func RunServer(appState *state.AppState) error {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	zap.S().Infof("服务器监听 %s", addr)

	return app.Listen(addr)
}
