package models

import (
	"encoding/json"
	"time"
)

// RunMode 运行模式
type RunMode string

const (
	ModeDiscoverOnly RunMode = "discover_only" // 仅发现+分类,不下载
	ModeFullRun      RunMode = "full_run"      // 发现+分类+下载
	ModeDirectURLs   RunMode = "direct_urls"   // 跳过发现,直接下载操作者提供的URL
)

// PageDiscovery 单个种子页面的发现结果
type PageDiscovery struct {
	SeedURL    string      `json:"seed_url"`
	Links      int         `json:"links"`      // 去重后的锚点链接数
	Candidates []Candidate `json:"candidates"` // 通过分类的候选
}

// PageFailure 种子页面级失败(网络错误/超时/非成功状态)
// 在本页面内恢复,不影响其他种子页面的发现
type PageFailure struct {
	SeedURL   string    `json:"seed_url"`
	ErrorMsg  string    `json:"error_msg"`
	FailedAt  time.Time `json:"failed_at"`
}

// RunStats 运行统计
type RunStats struct {
	SeedPages       int     `json:"seed_pages"`        // 种子页面总数
	FailedPages     int     `json:"failed_pages"`      // 发现失败的页面数
	DiscoveredLinks int     `json:"discovered_links"`  // 发现的链接总数(按页面去重后)
	Candidates      int     `json:"candidates"`        // 候选总数(跨页面去重后)
	Downloaded      int     `json:"downloaded"`        // 成功下载数
	Failed          int     `json:"failed"`            // 级联耗尽数
	ManualRequired  int     `json:"manual_required"`   // 需人工处理数
	TotalBytes      int64   `json:"total_bytes"`       // 成功下载总字节数
	Duration        float64 `json:"duration"`          // 总耗时(秒)
}

// RunReport 一次运行的结构化报告
// 供调用方/测试消费,区别于控制台输出
type RunReport struct {
	RunID     string  `json:"run_id"`
	Mode      RunMode `json:"mode"`
	OutputDir string  `json:"output_dir"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 发现阶段结果(按种子页面)
	Pages        []PageDiscovery `json:"pages,omitempty"`
	PageFailures []PageFailure   `json:"page_failures,omitempty"`

	// 下载阶段结果(按候选,级联完成顺序)
	Results []CandidateResult `json:"results,omitempty"`

	// 运行是否被操作者中断(已完成的结果仍然有效)
	Interrupted bool `json:"interrupted,omitempty"`

	Stats RunStats `json:"stats"`

	// 配置快照
	Config AcquireConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}

// Recount 根据已有结果重算统计计数
func (r *RunReport) Recount() {
	stats := RunStats{
		SeedPages:   len(r.Pages) + len(r.PageFailures),
		FailedPages: len(r.PageFailures),
		Duration:    r.Stats.Duration,
	}

	seen := make(map[string]bool)
	for _, page := range r.Pages {
		stats.DiscoveredLinks += page.Links
		for _, c := range page.Candidates {
			if !seen[c.URL] {
				seen[c.URL] = true
				stats.Candidates++
			}
		}
	}

	// 直连模式没有发现阶段,候选数以结果为准
	if r.Mode == ModeDirectURLs {
		stats.Candidates = len(r.Results)
	}

	for _, result := range r.Results {
		if result.Succeeded() {
			stats.Downloaded++
		} else {
			stats.Failed++
		}
		if result.ManualURL != "" {
			stats.ManualRequired++
		}
	}

	stats.TotalBytes = r.Stats.TotalBytes
	r.Stats = stats
}
