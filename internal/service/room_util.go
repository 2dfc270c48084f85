package service

import (
	"context"
	"errors"
	"strings"

	"liar-game-be/internal/monitor"
	"liar-game-be/internal/service/agent"
	"liar-game-be/internal/service/game"
	"liar-game-be/internal/store"
)

// roomAgent 是本进程为某个房间启动的代理及其订阅
type roomAgent struct {
	agent  *agent.Agent
	sub    *store.Subscription
	cancel context.CancelFunc
}

func (ra *roomAgent) stop() {
	ra.cancel()
	ra.sub.Close()
	ra.agent.Stop()
}

func actionResult(err error) string {
	switch {
	case err == nil:
		return monitor.RESULT_OK
	case game.IsRejection(err):
		return monitor.RESULT_REJECTED
	default:
		return monitor.RESULT_FAILED
	}
}

// translateStoreErr 把存储层的“不存在”统一成规则层的错误
func translateStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return game.ErrRoomNotFound
	}

	return err
}

func isRoomValid(room *game.Room) bool {
	if room == nil {
		return false
	}

	if len(room.Players) <= 0 {
		return false
	}

	return true
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}
