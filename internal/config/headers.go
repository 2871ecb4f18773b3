package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultHeaderFile 自定义头部配置的默认路径
	DefaultHeaderFile = "configs/headers.yaml"

	// MaxHeaderFileSize 头部配置文件大小上限 (1MB)
	MaxHeaderFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var headerTemplate string

// HeaderConfigLoader 加载headers.yaml, 文件不存在时先落一份注释模板
type HeaderConfigLoader struct {
	path string
}

func NewHeaderConfigLoader(path string) *HeaderConfigLoader {
	if path == "" {
		path = DefaultHeaderFile
	}
	return &HeaderConfigLoader{path: path}
}

// Load 读取并解析头部配置
// 文件不存在时自动生成模板; 文件被其他进程锁定时降级为空配置
func (hcl *HeaderConfigLoader) Load() (*models.HeaderConfig, error) {
	if err := hcl.ensureExists(); err != nil {
		return nil, err
	}
	if err := hcl.checkSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(hcl.path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			utils.Warnf("头部配置被锁定 [%s], 本次使用内置默认头部", hcl.path)
			return &models.HeaderConfig{Headers: map[string]string{}}, nil
		}
		return nil, &models.ConfigError{FilePath: hcl.path, Cause: err}
	}

	var config models.HeaderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.path,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}
	if config.Headers == nil {
		config.Headers = map[string]string{}
	}
	return &config, nil
}

// ensureExists 不存在则写入内置模板, 让操作者有现成文件可改
func (hcl *HeaderConfigLoader) ensureExists() error {
	if _, err := os.Stat(hcl.path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(hcl.path), 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", filepath.Dir(hcl.path), err)
	}
	if err := os.WriteFile(hcl.path, []byte(headerTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", hcl.path, err)
	}
	return nil
}

// checkSize 拒绝异常巨大的配置文件
func (hcl *HeaderConfigLoader) checkSize() error {
	info, err := os.Stat(hcl.path)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", hcl.path, err)
	}
	if info.Size() > MaxHeaderFileSize {
		return &models.ConfigError{
			FilePath: hcl.path,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (上限 %d 字节)", info.Size(), MaxHeaderFileSize),
		}
	}
	return nil
}
