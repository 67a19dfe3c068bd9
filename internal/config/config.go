package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`    // 服务器配置
	Database  DatabaseConfig            `mapstructure:"database"`  // PostgreSQL配置
	Sync      SyncConfig                `mapstructure:"sync"`      // 同步编排配置
	Matcher   MatcherConfig             `mapstructure:"matcher"`   // 身份匹配配置
	Providers map[string]ProviderConfig `mapstructure:"providers"` // 外部数据源独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SyncConfig 同步编排配置
type SyncConfig struct {
	Interval        time.Duration `mapstructure:"interval"`          // 定时全量同步间隔，0 表示不启用
	ScrapePages     int           `mapstructure:"scrape_pages"`      // 定时同步抓取页数
	DivisionBatch   int           `mapstructure:"division_batch"`    // 级别拉取并发批大小
	DivisionDelay   time.Duration `mapstructure:"division_delay"`    // 级别批次间隔
	BoutInsertBatch int           `mapstructure:"bout_insert_batch"` // 场次批量入库大小
}

// MatcherConfig 身份匹配配置
// 阈值均为手工调优值，允许按环境覆盖，不视为算法常量
type MatcherConfig struct {
	ScanRadius      int           `mapstructure:"scan_radius"`      // 扫描半径（向两侧各扩展）
	ChunkSize       int           `mapstructure:"chunk_size"`       // 扫描并发块大小
	ChunkDelay      time.Duration `mapstructure:"chunk_delay"`      // 扫描块间隔
	DefaultHintID   int64         `mapstructure:"default_hint_id"`  // 无历史游标时的起始ID
	MinScore        int           `mapstructure:"min_score"`        // 接受匹配的最低得分
	MinSharedWords  int           `mapstructure:"min_shared_words"` // 日期匹配路径要求的最少共享词数
	MatchConfidence int           `mapstructure:"match_confidence"` // 落库时记录的固定置信度
}

// ProviderConfig 单个外部数据源的独立配置
type ProviderConfig struct {
	BaseURL    string `mapstructure:"base_url"`    // API基础地址
	Timeout    int    `mapstructure:"timeout"`     // 请求超时（秒）
	AuthToken  string `mapstructure:"auth_token"`  // 认证Token（可选）
	Proxy      string `mapstructure:"proxy"`       // 代理地址
	PageSize   int    `mapstructure:"page_size"`   // 赛程源每页条数
	RegionCode string `mapstructure:"region_code"` // 赛程源地区代码
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)

	// 4. 缺省值兜底
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if p, ok := cfg.Providers["flowrestling"]; ok {
		if v := os.Getenv("FLO_AUTH_TOKEN"); v != "" {
			p.AuthToken = v
		}
		if v := os.Getenv("FLO_PROXY"); v != "" {
			p.Proxy = v
		}
		cfg.Providers["flowrestling"] = p
	}
	if p, ok := cfg.Providers["trackwrestling"]; ok {
		if v := os.Getenv("TRACK_PROXY"); v != "" {
			p.Proxy = v
		}
		cfg.Providers["trackwrestling"] = p
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
}

// applyDefaults 匹配与同步参数缺省值（config.yaml 未填时生效）
func applyDefaults(cfg *Config) {
	if cfg.Sync.ScrapePages <= 0 {
		cfg.Sync.ScrapePages = 5
	}
	if cfg.Sync.DivisionBatch <= 0 {
		cfg.Sync.DivisionBatch = 3
	}
	if cfg.Sync.DivisionDelay <= 0 {
		cfg.Sync.DivisionDelay = 500 * time.Millisecond
	}
	if cfg.Sync.BoutInsertBatch <= 0 {
		cfg.Sync.BoutInsertBatch = 50
	}
	if cfg.Matcher.ScanRadius <= 0 {
		cfg.Matcher.ScanRadius = 75
	}
	if cfg.Matcher.ChunkSize <= 0 {
		cfg.Matcher.ChunkSize = 10
	}
	if cfg.Matcher.ChunkDelay <= 0 {
		cfg.Matcher.ChunkDelay = 300 * time.Millisecond
	}
	if cfg.Matcher.DefaultHintID <= 0 {
		cfg.Matcher.DefaultHintID = 14468000
	}
	if cfg.Matcher.MinScore <= 0 {
		cfg.Matcher.MinScore = 50
	}
	if cfg.Matcher.MinSharedWords <= 0 {
		cfg.Matcher.MinSharedWords = 3
	}
	if cfg.Matcher.MatchConfidence <= 0 {
		cfg.Matcher.MatchConfidence = 90
	}
}
