package config

import (
	"fmt"
	"strings"

	"github.com/blues/propdao/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Investment InvestmentConfig `mapstructure:"investment"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Task       TaskConfig       `mapstructure:"task"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// AuthConfig 身份提供方令牌校验配置
type AuthConfig struct {
	JWTPublicKey   string   `mapstructure:"jwt_public_key"`   // ES256 公钥 PEM
	JWTSecret      string   `mapstructure:"jwt_secret"`       // HS256 密钥，仅开发环境
	Issuer         string   `mapstructure:"issuer"`           // 期望的 iss
	Audience       string   `mapstructure:"audience"`         // 期望的 aud
	AdminAllowList []string `mapstructure:"admin_allow_list"` // 管理员用户ID或钱包地址
}

type UploadConfig struct {
	Dir        string `mapstructure:"dir"`
	PublicBase string `mapstructure:"public_base"`
	MaxSizeMB  int64  `mapstructure:"max_size_mb"`
}

// InvestmentConfig 链下投资记账配置
type InvestmentConfig struct {
	UnitPrice string `mapstructure:"unit_price"` // 每个代币的固定单价
}

// ChainConfig 多网络配置，启动时按 Network 选择一个
type ChainConfig struct {
	Network  string                   `mapstructure:"network"`
	Networks map[string]NetworkConfig `mapstructure:"networks"`
}

// NetworkConfig 单个网络配置
type NetworkConfig struct {
	ChainId    int64                     `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string                    `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string                    `mapstructure:"private_key"` // 私钥
	Contracts  map[string]ContractConfig `mapstructure:"contracts"`   // 合约角色 -> 合约配置
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address  string `mapstructure:"address"`   // 合约地址
	ABIPath  string `mapstructure:"abi_path"`  // ABI文件路径
	BlockNum int64  `mapstructure:"block_num"` // 合约部署区块号
}

type TaskConfig struct {
	Interval  int   `mapstructure:"interval"`   // 秒
	BatchSize int64 `mapstructure:"batch_size"` // 每批扫描的区块数
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// ActiveNetwork 返回当前选中的网络配置
func (c ChainConfig) ActiveNetwork() (NetworkConfig, bool) {
	if c.Network == "" {
		return NetworkConfig{}, false
	}
	network, ok := c.Networks[c.Network]
	return network, ok
}

// LoadFrom 加载配置，file 为空时在默认路径中查找 config.yaml
func LoadFrom(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/propdao")
	}

	// 设置默认值
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "propdao")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "propdao.db")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.public_base", "/uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("investment.unit_price", "100")
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.batch_size", 500)
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量，例如 PROPDAO_DATABASE_HOST
	v.SetEnvPrefix("PROPDAO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if file != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		logger.Warn("Could not read config file, using defaults: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}
