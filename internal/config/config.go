package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Log       LogConfig       `mapstructure:"log"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置（会话事件推送）
type WebSocketConfig struct {
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

// GameConfig 挖掘游戏配置
type GameConfig struct {
	QuestsEnabled    bool   `mapstructure:"quests_enabled"`     // 是否生成记录任务
	TimeLimitEnabled bool   `mapstructure:"time_limit_enabled"` // 是否启用时间预算
	DefaultTool      string `mapstructure:"default_tool"`       // 会话默认起始工具
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	RefreshHours int    `mapstructure:"refresh_hours"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("DIG_GAME")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			return
		}
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/dig-game.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "info")
	v.SetDefault("database.auto_migrate", true)

	// WebSocket默认配置
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.ping_interval", "30s")

	// 游戏默认配置
	v.SetDefault("game.quests_enabled", true)
	v.SetDefault("game.time_limit_enabled", false)
	v.SetDefault("game.default_tool", "trowel")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "dig-game.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	// JWT默认配置
	v.SetDefault("security.jwt.secret", "dev-secret-change-me")
	v.SetDefault("security.jwt.expire_hours", 24)
	v.SetDefault("security.jwt.refresh_hours", 168)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}

		fmt.Println("配置已重新加载")
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet 检查配置项是否存在
func IsSet(key string) bool {
	return v.IsSet(key)
}

// Set 动态设置配置值
func Set(key string, value interface{}) {
	v.Set(key, value)
}
