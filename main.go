package main

import (
	"context"
	"time"

	"liar-game-be/internal/api/http"
	"liar-game-be/internal/config"
	"liar-game-be/internal/logger"
	"liar-game-be/internal/monitor"
	"liar-game-be/internal/service"
	"liar-game-be/internal/service/game"
	"liar-game-be/internal/state"
	"liar-game-be/internal/store"

	"go.uber.org/zap"
)

func openStore(cfg *config.AppConfig) store.Store {
	switch cfg.Store.Driver {
	case config.STORE_DRIVER_POSTGRES:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		st, err := store.NewPostgresStore(ctx, cfg.Store.DSN, cfg.Store.MaxRetries)
		if err != nil {
			zap.L().Fatal("连接 PostgreSQL 失败", zap.Error(err))
		}
		return st

	default:
		zap.L().Info("使用内存房间存储，仅适用于单进程部署")
		return store.NewMemoryStore(cfg.Store.MaxRetries)
	}
}

func main() {
	// 加载配置
	cfg := config.GetConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)
	defer zap.L().Sync()

	mon := monitor.NewMonitor(cfg.Metrics.Namespace)

	st := openStore(cfg)
	defer st.Close()

	machine := game.NewGameMachine(
		game.WithMaxPlayers(cfg.Game.MaxPlayers),
	)

	roomSvc := service.NewRoomService(st, machine, mon, service.Options{
		DefaultMaxScore: cfg.Game.DefaultMaxScore,
		MaxTieRounds:    cfg.Game.MaxTieRounds,
		BotDelay:        cfg.Game.BotDelay(),
		IdleTimeout:     cfg.Game.IdleTimeout(),
		RoomTTL:         cfg.Game.RoomTTL(),
	})
	defer roomSvc.Close()

	// 组装应用状态
	appState := state.NewAppState(cfg, roomSvc, mon)

	// 启动服务器
	if err := http.RunServer(appState); err != nil {
		zap.L().Error("服务器退出", zap.Error(err))
	}
}
