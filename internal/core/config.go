package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/DsGrab/internal/crawlers"
	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/spf13/viper"
)

// DefaultSeeds 内置种子页面, 未指定种子时使用
var DefaultSeeds = []string{
	"https://cse.buffalo.edu/~siweilyu/celeb-deepfakeforensics.html",
	"https://github.com/yuezunli/celeb-deepfakeforensics",
	"https://arxiv.org/abs/1909.12962",
	"https://github.com/yuezunli/celeb-deepfakeforensics/releases",
	"https://www.kaggle.com/datasets/reubensuju/celeb-df-v2",
}

// Config 应用程序配置
type Config struct {
	Seeds    []string                `mapstructure:"seeds"`
	Acquire  models.AcquireConfig    `mapstructure:"acquire"`
	Classify crawlers.ClassifyPolicy `mapstructure:"classify"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Output   OutputConfig            `mapstructure:"output"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dsgrab"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if len(config.Seeds) == 0 {
		config.Seeds = append([]string(nil), DefaultSeeds...)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 采集配置默认值
	v.SetDefault("acquire.page_timeout", 20)
	v.SetDefault("acquire.fetch_timeout", 30)
	v.SetDefault("acquire.politeness_delay", 1)
	v.SetDefault("acquire.chunk_size", 32768)
	v.SetDefault("acquire.min_free_disk_mb", 0)
	v.SetDefault("acquire.drive_enabled", true)
	v.SetDefault("acquire.external_tool", "wget")

	// 候选识别策略默认值
	policy := crawlers.DefaultClassifyPolicy()
	v.SetDefault("classify.archive_extensions", policy.ArchiveExtensions)
	v.SetDefault("classify.drive_hosts", policy.DriveHosts)
	v.SetDefault("classify.hosted_hosts", policy.HostedHosts)
	v.SetDefault("classify.object_hosts", policy.ObjectHosts)
	v.SetDefault("classify.min_query_length", policy.MinQueryLength)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "downloads")
}

// Validate 验证整体配置
func (c *Config) Validate() error {
	for _, seed := range c.Seeds {
		if err := models.ValidateURL(seed); err != nil {
			return fmt.Errorf("种子URL非法 %s: %w", seed, err)
		}
	}
	if err := c.Acquire.Validate(); err != nil {
		return fmt.Errorf("采集配置非法: %w", err)
	}
	return nil
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(outDir string, delay int, logLevel string) {
	if outDir != "" {
		c.Output.BaseDir = outDir
	}
	if delay >= 0 {
		c.Acquire.PolitenessDelay = delay
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
}
