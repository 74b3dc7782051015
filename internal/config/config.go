package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // 数据库配置
	Sync     SyncConfig     `mapstructure:"sync"`     // 定时导入配置
	Scraper  ScraperConfig  `mapstructure:"scraper"`  // 外部数据源配置
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

// SyncConfig 定时导入配置
type SyncConfig struct {
	Hour            int  `mapstructure:"hour"`              // 每日触发小时（本地时间）
	Minute          int  `mapstructure:"minute"`            // 每日触发分钟
	BackfillOnEmpty bool `mapstructure:"backfill_on_empty"` // 启动时库为空则执行历史回填
}

// ScraperConfig 外部数据源配置（oryx_data 镜像的CSV文件）
type ScraperConfig struct {
	BaseURL           string `mapstructure:"base_url"`            // CSV镜像基础地址
	Timeout           int    `mapstructure:"timeout"`             // 请求超时（秒）
	RetryCount        int    `mapstructure:"retry_count"`         // 单次拉取的重试次数
	Proxy             string `mapstructure:"proxy"`               // 代理地址
	EquipmentsFile    string `mapstructure:"equipments_file"`     // 按日装备损失CSV
	AllEquipmentsFile string `mapstructure:"all_equipments_file"` // 装备总量CSV
	SystemsFile       string `mapstructure:"systems_file"`        // 武器系统损失CSV
	AllSystemsFile    string `mapstructure:"all_systems_file"`    // 武器系统总量CSV
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
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感/按部署变化的配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SCRAPER_BASE_URL"); v != "" {
		cfg.Scraper.BaseURL = v
	}
	if v := os.Getenv("SCRAPER_PROXY"); v != "" {
		cfg.Scraper.Proxy = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
