package crawlers

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/DsGrab/internal/models"
)

// ClassifyPolicy 分类启发式的可配置策略
// 没有机器可读的数据集清单,分类只能是启发式的;
// 阈值与名单是策略而非定律,全部可通过配置覆盖
type ClassifyPolicy struct {
	// ArchiveExtensions 已知的归档/媒体扩展名(不含点,小写)
	ArchiveExtensions []string `mapstructure:"archive_extensions"`

	// DriveHosts Google Drive形态的云盘域名
	DriveHosts []string `mapstructure:"drive_hosts"`

	// HostedHosts 已知云盘/数据集托管域名(非Drive形态)
	HostedHosts []string `mapstructure:"hosted_hosts"`

	// ObjectHosts 已知对象存储/文件柜域名
	ObjectHosts []string `mapstructure:"object_hosts"`

	// MinQueryLength 查询串长度阈值,超过且含下载特征词才算候选
	MinQueryLength int `mapstructure:"min_query_length"`
}

// DefaultClassifyPolicy 默认分类策略
func DefaultClassifyPolicy() ClassifyPolicy {
	return ClassifyPolicy{
		ArchiveExtensions: []string{"zip", "tar", "tar.gz", "tar.bz2", "tgz", "7z", "mp4", "mkv", "bin"},
		DriveHosts:        []string{"drive.google.com", "docs.google.com"},
		HostedHosts:       []string{"kaggle.com", "dropbox.com", "pan.baidu.com"},
		ObjectHosts:       []string{"s3.amazonaws.com", "storage.googleapis.com", "box.com"},
		MinQueryLength:    20,
	}
}

// driveIDPattern 云盘分享URL的路径段模式 /d/<id>
var driveIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

// Classifier 候选分类器
// 分类是URL字符串的纯函数: 相同输入永远得到相同结果
type Classifier struct {
	policy ClassifyPolicy
}

// NewClassifier 创建分类器
func NewClassifier(policy ClassifyPolicy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify 判断URL是否为候选下载链接
// 规则按顺序应用,首个命中生效:
//  1. 路径以已知归档/媒体扩展名结尾 → direct_file
//  2. 已知云盘/数据集托管域名 → Drive形态为cloud_drive,否则generic_hosted
//  3. 已知对象存储域名 → generic_hosted
//  4. 查询串超过阈值长度且含下载特征词(download或id=) → generic_hosted
//  5. 其余 → 非候选
//
// 宁可漏判也不误判: 漏掉的真实文件由操作者通过--direct补救,
// 误判只是让廉价的策略级联多跑一轮
func (c *Classifier) Classify(rawURL string, sourcePage string) (models.Candidate, bool) {
	kind, ok := c.kindOf(rawURL)
	if !ok {
		return models.Candidate{}, false
	}
	return models.NewCandidate(rawURL, sourcePage, kind), true
}

// kindOf 规则引擎本体,返回来源类型和是否命中
func (c *Classifier) kindOf(rawURL string) (models.SourceKind, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	lowerPath := strings.ToLower(parsed.Path)

	// 规则1: 扩展名
	for _, ext := range c.policy.ArchiveExtensions {
		if strings.HasSuffix(lowerPath, "."+strings.ToLower(ext)) {
			return models.KindDirectFile, true
		}
	}

	// 规则2: 云盘/托管域名
	if matchHost(host, c.policy.DriveHosts) {
		return models.KindCloudDrive, true
	}
	if matchHost(host, c.policy.HostedHosts) {
		return models.KindGenericHosted, true
	}

	// 规则3: 对象存储域名
	if matchHost(host, c.policy.ObjectHosts) {
		return models.KindGenericHosted, true
	}

	// 规则4: 长查询串 + 下载特征词
	query := parsed.RawQuery
	if len(query) > c.policy.MinQueryLength {
		lowerURL := strings.ToLower(rawURL)
		if strings.Contains(lowerURL, "download") || strings.Contains(lowerURL, "id=") {
			return models.KindGenericHosted, true
		}
	}

	return "", false
}

// DetectKind 为操作者直接提供的URL确定来源类型
// 直连模式跳过分类闸门(URL已由操作者核实),但级联仍需要知道
// 云盘与否才能选对策略;未命中任何规则时按直接文件处理
func (c *Classifier) DetectKind(rawURL string) models.SourceKind {
	if kind, ok := c.kindOf(rawURL); ok {
		return kind
	}
	return models.KindDirectFile
}

// matchHost 判断host是否命中域名名单(精确或子域名)
func matchHost(host string, domains []string) bool {
	for _, domain := range domains {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ExtractDriveID 从云盘分享URL提取文件标识
// 先匹配路径段模式 /d/<id>,再回退到id查询参数
// 两者都不存在返回false —— 这不是错误,调用方应将其视为
// "需要人工处理",而非可重试的失败
func ExtractDriveID(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	if m := driveIDPattern.FindStringSubmatch(parsed.Path); m != nil {
		return m[1], true
	}

	if id := parsed.Query().Get("id"); id != "" {
		return id, true
	}

	return "", false
}
