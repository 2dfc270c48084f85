package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"liar-game-be/internal/service/game"

	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("room document not found")
	ErrAlreadyExists = errors.New("room document already exists")
	// ErrConflict 表示乐观并发重试次数耗尽，调用方可以原样重试
	ErrConflict = errors.New("room document changed concurrently, retries exhausted")

	errStale = errors.New("stale version")
)

const DEFAULT_MAX_RETRIES = 5

// TxFunc 在读到的快照上计算新文档。
// 返回错误则放弃事务；返回 (nil, nil) 表示删除文档
type TxFunc func(room *game.Room) (*game.Room, error)

// Store 是按房间号存放房间文档的共享存储，
// 提供原子的读-改-写事务以及变更推送
type Store interface {
	Create(ctx context.Context, room *game.Room) error
	Get(ctx context.Context, roomID string) (*game.Room, error)
	// Transact 返回提交后的文档，文档被删除时返回 nil
	Transact(ctx context.Context, roomID string, fn TxFunc) (*game.Room, error)
	Delete(ctx context.Context, roomID string) error
	// ListIdle 返回最后更新时间早于 before 的房间
	ListIdle(ctx context.Context, before time.Time) ([]string, error)
	Subscribe(roomID string) *Subscription
	Close() error
}

// loadFunc 读取文档及其版本号
type loadFunc func(ctx context.Context) (*game.Room, int64, error)

// commitFunc 仅当当前版本仍为 expected 时写入，否则返回 errStale。
// next 为 nil 表示删除
type commitFunc func(ctx context.Context, next *game.Room, expected int64) error

// runTransaction 是比较并交换加有限次重试的通用实现
func runTransaction(
	ctx context.Context,
	roomID string,
	maxRetries int,
	load loadFunc,
	commit commitFunc,
	fn TxFunc,
) (*game.Room, error) {
	if maxRetries <= 0 {
		maxRetries = DEFAULT_MAX_RETRIES
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, version, err := load(ctx)
		if err != nil {
			return nil, err
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}

		if next != nil {
			next.Version = version + 1
		}

		err = commit(ctx, next, version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, errStale) {
			return nil, err
		}

		zap.L().Debug(
			"房间文档版本冲突，重试事务",
			zap.String("room_id", roomID),
			zap.Int("attempt", attempt),
			zap.Int64("read_version", version),
		)
	}

	zap.L().Warn(
		"房间事务重试次数耗尽",
		zap.String("room_id", roomID),
		zap.Int("max_retries", maxRetries),
	)

	return nil, fmt.Errorf("%w: room %s", ErrConflict, roomID)
}

func encodeRoom(room *game.Room) ([]byte, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("encode room %s: %w", room.ID, err)
	}

	return data, nil
}

func decodeRoom(data []byte, version int64) (*game.Room, error) {
	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}

	room.Version = version

	return &room, nil
}
