package state

import (
	"liar-game-be/internal/config"
	"liar-game-be/internal/monitor"
	"liar-game-be/internal/service"
)

type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
	Monitor *monitor.Monitor
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
	mon *monitor.Monitor,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
		Monitor: mon,
	}
}
