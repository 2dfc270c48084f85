package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DEFAULT_CONFIG_FILE = "app_config.json"
	ENV_PREFIX          = "LIAR"

	STORE_DRIVER_MEMORY   = "memory"
	STORE_DRIVER_POSTGRES = "postgres"
)

type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type GameConfig struct {
	MaxPlayers      int `mapstructure:"max_players"`
	DefaultMaxScore int `mapstructure:"default_max_score"`

	// 0 表示平票不设上限
	MaxTieRounds   int `mapstructure:"max_tie_rounds"`
	BotDelayMs     int `mapstructure:"bot_delay_ms"`
	IdleTimeoutMs  int `mapstructure:"idle_timeout_ms"`
	RoomTTLMinutes int `mapstructure:"room_ttl_minutes"`
}

func (gc GameConfig) BotDelay() time.Duration {
	return time.Duration(gc.BotDelayMs) * time.Millisecond
}

func (gc GameConfig) IdleTimeout() time.Duration {
	return time.Duration(gc.IdleTimeoutMs) * time.Millisecond
}

func (gc GameConfig) RoomTTL() time.Duration {
	return time.Duration(gc.RoomTTLMinutes) * time.Minute
}

type WSConfig struct {
	// 每个连接每秒允许的命令数
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 前端静态文件目录，为空或不存在时不挂载
	StaticDir string        `mapstructure:"static_dir"`
	Store     StoreConfig   `mapstructure:"store"`
	Game      GameConfig    `mapstructure:"game"`
	WS        WSConfig      `mapstructure:"ws"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	config, err := LoadConfig(DEFAULT_CONFIG_FILE)
	if err != nil {
		panic(err)
	}

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "./liar-game-fe")

	v.SetDefault("store.driver", STORE_DRIVER_MEMORY)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.max_retries", 5)

	v.SetDefault("game.max_players", 30)
	v.SetDefault("game.default_max_score", 3)
	v.SetDefault("game.max_tie_rounds", 3)
	v.SetDefault("game.bot_delay_ms", 3000)
	v.SetDefault("game.idle_timeout_ms", 0)
	v.SetDefault("game.room_ttl_minutes", 120)

	v.SetDefault("ws.rate_limit", 5)
	v.SetDefault("ws.burst", 10)

	v.SetDefault("metrics.namespace", "liar_game")
}

// LoadConfig 读取 JSON 配置文件，文件不存在时只使用默认值和环境变量
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *AppConfig) validate() error {
	switch c.Store.Driver {
	case STORE_DRIVER_MEMORY:
	case STORE_DRIVER_POSTGRES:
		if c.Store.DSN == "" {
			return errors.New("store.dsn 不能为空")
		}
	default:
		return fmt.Errorf("未知的存储驱动: %s", c.Store.Driver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("端口不合法: %d", c.Port)
	}

	return nil
}
