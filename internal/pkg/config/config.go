package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var GlobalConfig *Config

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Log      LogConfig      `mapstructure:"log"`
	Core     CoreConfig     `mapstructure:"core"`
	AI       AIConfig       `mapstructure:"ai"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	CI       CIConfig       `mapstructure:"ci"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`         // debug, release
	ExternalURL string `mapstructure:"external_url"` // 用于拼接CI回调地址
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWT      JWTConfig `mapstructure:"jwt"`
	APIToken string    `mapstructure:"api_token"` // CI回调/制品拉取使用的静态令牌
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	AccessTokenExpire  int    `mapstructure:"access_token_expire"`  // 秒
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire"` // 秒
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	AESKey string `mapstructure:"aes_key"` // 32字节
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	Output     string `mapstructure:"output"` // stdout, file
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// CoreConfig 流水线核心配置
type CoreConfig struct {
	WorkDir       string `mapstructure:"work_dir"`       // 仓库克隆工作目录
	ScanInterval  string `mapstructure:"scan_interval"`  // 卡死运行扫描间隔
	RunTimeout    string `mapstructure:"run_timeout"`    // running 状态最大时长
	FetchTimeout  string `mapstructure:"fetch_timeout"`  // 仓库拉取超时
	PromptBudget  int    `mapstructure:"prompt_budget"`  // 提示词长度预算(字符)
	ScheduleRsync string `mapstructure:"schedule_rsync"` // 调度器重新装载计划的Cron
}

// AIConfig AI生成配置
type AIConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Version     string  `mapstructure:"version"` // API版本头
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

// RunnerConfig 本地/SSH执行器配置
type RunnerConfig struct {
	RobotCommand string `mapstructure:"robot_command"` // robot 可执行文件
	OutputDir    string `mapstructure:"output_dir"`    // 本地执行输出目录
	Browser      string `mapstructure:"browser"`
	Headless     bool   `mapstructure:"headless"`
	Timeout      string `mapstructure:"timeout"` // 单次执行超时
	RemoteDir    string `mapstructure:"remote_dir"`
}

// NotifyConfig 告警通知配置(Lark Webhook)
type NotifyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// CIConfig 外部CI(Jenkins风格)配置
type CIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Token    string `mapstructure:"token"`
	JobName  string `mapstructure:"job_name"`
	Timeout  string `mapstructure:"timeout"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 读取环境变量
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 设置全局配置
	GlobalConfig = config

	return config, nil
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// ParseDuration 解析时长配置, 非法时返回默认值
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
