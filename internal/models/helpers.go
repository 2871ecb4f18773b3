package models

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// NewID 生成唯一ID
func NewID() string {
	return uuid.New().String()
}

// NewCandidate 创建候选
// 文件名通过InferFilename推断,ID为UUID
func NewCandidate(rawURL string, sourcePage string, kind SourceKind) Candidate {
	return Candidate{
		ID:               NewID(),
		URL:              rawURL,
		SourcePage:       sourcePage,
		InferredFilename: InferFilename(rawURL),
		Kind:             kind,
		DiscoveredAt:     time.Now(),
	}
}
