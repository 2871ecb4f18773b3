package models

import "fmt"

// AcquireConfig 采集配置
// 全部通过显式传入,不读取任何全局状态,便于测试注入
type AcquireConfig struct {
	PageTimeout     int    `json:"page_timeout" mapstructure:"page_timeout"`         // 种子页面抓取超时(秒) (默认:20)
	FetchTimeout    int    `json:"fetch_timeout" mapstructure:"fetch_timeout"`       // 单次下载请求超时(秒) (默认:30)
	PolitenessDelay int    `json:"politeness_delay" mapstructure:"politeness_delay"` // 候选之间的礼貌延迟(秒) (默认:1)
	ChunkSize       int    `json:"chunk_size" mapstructure:"chunk_size"`             // 流式下载分块大小(字节) (默认:32768)
	MinFreeDiskMB   int64  `json:"min_free_disk_mb" mapstructure:"min_free_disk_mb"` // 下载前要求的最小剩余磁盘空间(MB)
	DriveEnabled    bool   `json:"drive_enabled" mapstructure:"drive_enabled"`       // 是否启用内置云盘下载能力
	ExternalTool    string `json:"external_tool" mapstructure:"external_tool"`       // 外部传输工具名称 (默认:wget)
}

// Validate 验证采集配置
func (c *AcquireConfig) Validate() error {
	if c.PageTimeout < 1 || c.PageTimeout > 300 {
		return fmt.Errorf("页面超时必须在1-300秒之间")
	}
	if c.FetchTimeout < 1 || c.FetchTimeout > 3600 {
		return fmt.Errorf("下载超时必须在1-3600秒之间")
	}
	if c.PolitenessDelay < 0 || c.PolitenessDelay > 60 {
		return fmt.Errorf("礼貌延迟必须在0-60秒之间")
	}
	if c.ChunkSize < 1024 || c.ChunkSize > 16*1024*1024 {
		return fmt.Errorf("分块大小必须在1KB-16MB之间")
	}
	if c.MinFreeDiskMB < 0 {
		return fmt.Errorf("最小剩余磁盘空间不能为负数")
	}
	return nil
}
