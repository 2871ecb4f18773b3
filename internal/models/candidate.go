package models

import (
	"fmt"
	"net/url"
	"path"
	"time"
)

// SourceKind 候选链接的来源类型
type SourceKind string

const (
	KindCloudDrive    SourceKind = "cloud_drive"    // 云盘分享链接(Google Drive形态)
	KindGenericHosted SourceKind = "generic_hosted" // 通用托管站点(Kaggle/Dropbox/对象存储等)
	KindDirectFile    SourceKind = "direct_file"    // 直接指向文件的URL(按扩展名识别)
)

// DefaultFilename 无法从URL推断文件名时使用的占位名
// 保证下载流水线不会仅因命名失败而中断
const DefaultFilename = "downloaded_file"

// Candidate 通过分类的候选下载链接
type Candidate struct {
	// ID 候选唯一ID (UUID)
	ID string `json:"id"`

	// URL 候选的绝对URL
	URL string `json:"url"`

	// SourcePage 发现此候选的种子页面(直连模式下为空)
	SourcePage string `json:"source_page,omitempty"`

	// InferredFilename 推断的文件名
	// 优先级: filename查询参数 > URL路径末段 > 占位名
	InferredFilename string `json:"inferred_filename"`

	// Kind 来源类型,决定策略级联的入口
	Kind SourceKind `json:"kind"`

	// DiscoveredAt 发现时间
	DiscoveredAt time.Time `json:"discovered_at"`
}

// DownloadTarget 候选的落盘目标
// 不变量: Filename非空
type DownloadTarget struct {
	OutputDir string `json:"output_dir"`
	Filename  string `json:"filename"`
}

// Path 返回目标的完整文件路径
func (t DownloadTarget) Path() string {
	return path.Join(t.OutputDir, t.Filename)
}

// Validate 验证落盘目标
func (t DownloadTarget) Validate() error {
	if t.Filename == "" {
		return fmt.Errorf("落盘文件名不能为空")
	}
	if t.OutputDir == "" {
		return fmt.Errorf("输出目录不能为空")
	}
	return nil
}

// InferFilename 从URL推断落盘文件名
// 规则:
//  1. filename查询参数存在时优先使用(视为权威来源)
//  2. 否则取URL路径的最后一段
//  3. 两者都取不到时返回占位名,保证文件名永远非空
func InferFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return DefaultFilename
	}

	// filename查询参数优先
	if qs := parsed.Query(); qs.Has("filename") {
		if name := qs.Get("filename"); name != "" {
			return path.Base(name) // 去除参数中可能携带的路径前缀
		}
	}

	// 回退到路径末段
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return DefaultFilename
	}
	return name
}
