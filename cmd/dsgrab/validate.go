package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/DsGrab/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志组合
func ValidateFlags(userURLs []string, direct bool, delay int) error {
	// 直连模式必须提供URL
	if direct && len(userURLs) == 0 {
		return fmt.Errorf("--direct 模式需要通过 -u 或 -f 提供至少一个URL")
	}

	// 验证URL格式
	for _, rawURL := range userURLs {
		if err := ValidateURL(rawURL); err != nil {
			return fmt.Errorf("无效的URL %s: %w", rawURL, err)
		}
	}

	// 验证延迟(-1表示使用配置文件值)
	if delay > 60 {
		return fmt.Errorf("礼貌延迟必须在0-60秒之间,当前值: %d", delay)
	}

	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
