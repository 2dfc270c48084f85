package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"liar-game-be/internal/service/game"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	NOTIFY_CHANNEL = "room_changed"

	LISTENER_MIN_RECONNECT = 10 * time.Second
	LISTENER_MAX_RECONNECT = time.Minute
	LISTENER_PING_INTERVAL = 90 * time.Second
)

// RoomDocument 是房间文档在数据库中的行
type RoomDocument struct {
	RoomID    string    `gorm:"primaryKey;size:64"`
	Version   int64     `gorm:"not null"`
	Data      string    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (RoomDocument) TableName() string {
	return "rooms"
}

// PostgresStore 把房间文档存放在 PostgreSQL 中，
// 通过版本号做条件更新，通过 LISTEN/NOTIFY 把变更推给各进程的订阅者
type PostgresStore struct {
	db         *gorm.DB
	listener   *pq.Listener
	hub        *hub
	maxRetries int

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewPostgresStore(ctx context.Context, dsn string, maxRetries int) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.WithContext(ctx).AutoMigrate(&RoomDocument{}); err != nil {
		return nil, fmt.Errorf("migrate rooms table: %w", err)
	}

	listener := pq.NewListener(dsn, LISTENER_MIN_RECONNECT, LISTENER_MAX_RECONNECT, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			zap.L().Warn("数据库通知连接异常", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(NOTIFY_CHANNEL); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", NOTIFY_CHANNEL, err)
	}

	s := &PostgresStore{
		db:         db,
		listener:   listener,
		hub:        newHub(),
		maxRetries: maxRetries,
		done:       make(chan struct{}),
	}

	s.wg.Add(1)
	go s.notifyLoop()

	zap.L().Info("已连接 PostgreSQL 房间存储")

	return s, nil
}

func (s *PostgresStore) Create(ctx context.Context, room *game.Room) error {
	room.Version = 1

	data, err := encodeRoom(room)
	if err != nil {
		return err
	}

	doc := RoomDocument{
		RoomID:    room.ID,
		Version:   room.Version,
		Data:      string(data),
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, roomID string) (*game.Room, error) {
	room, _, err := s.load(ctx, roomID)
	return room, err
}

func (s *PostgresStore) load(ctx context.Context, roomID string) (*game.Room, int64, error) {
	var doc RoomDocument
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	room, err := decodeRoom([]byte(doc.Data), doc.Version)
	if err != nil {
		return nil, 0, err
	}

	return room, doc.Version, nil
}

func (s *PostgresStore) Transact(ctx context.Context, roomID string, fn TxFunc) (*game.Room, error) {
	load := func(ctx context.Context) (*game.Room, int64, error) {
		return s.load(ctx, roomID)
	}

	commit := func(ctx context.Context, next *game.Room, expected int64) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var result *gorm.DB

			if next == nil {
				result = tx.Where("room_id = ? AND version = ?", roomID, expected).Delete(&RoomDocument{})
			} else {
				data, err := encodeRoom(next)
				if err != nil {
					return err
				}

				result = tx.Model(&RoomDocument{}).
					Where("room_id = ? AND version = ?", roomID, expected).
					Updates(map[string]any{
						"version":    next.Version,
						"data":       string(data),
						"updated_at": next.UpdatedAt,
					})
			}

			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errStale
			}

			// 通知与写入在同一事务中，提交后才会送达
			return tx.Exec("SELECT pg_notify(?, ?)", NOTIFY_CHANNEL, roomID).Error
		})
	}

	return runTransaction(ctx, roomID, s.maxRetries, load, commit, fn)
}

func (s *PostgresStore) Delete(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("room_id = ?", roomID).Delete(&RoomDocument{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Exec("SELECT pg_notify(?, ?)", NOTIFY_CHANNEL, roomID).Error
	})
}

func (s *PostgresStore) ListIdle(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&RoomDocument{}).
		Where("updated_at < ?", before).
		Pluck("room_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (s *PostgresStore) Subscribe(roomID string) *Subscription {
	return s.hub.subscribe(roomID)
}

// notifyLoop 收到通知后重新读取文档再分发给本进程的订阅者
func (s *PostgresStore) notifyLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(LISTENER_PING_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}

			// 重连之后可能漏掉通知，全部刷新一遍
			if n == nil {
				for _, id := range s.hub.subscribedRooms() {
					s.refresh(id)
				}
				continue
			}

			s.refresh(n.Extra)

		case <-ticker.C:
			if err := s.listener.Ping(); err != nil {
				zap.L().Warn("数据库通知连接心跳失败", zap.Error(err))
			}
		}
	}
}

func (s *PostgresStore) refresh(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := s.Get(ctx, roomID)
	if errors.Is(err, ErrNotFound) {
		s.hub.closeRoom(roomID)
		return
	}
	if err != nil {
		zap.L().Error("刷新房间文档失败", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	s.hub.publish(room)
}

func (s *PostgresStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.hub.closeAll()

		if err := s.listener.Close(); err != nil {
			zap.L().Warn("关闭数据库通知连接失败", zap.Error(err))
		}

		sqlDB, err := s.db.DB()
		if err != nil {
			closeErr = err
			return
		}

		closeErr = sqlDB.Close()
	})

	return closeErr
}
