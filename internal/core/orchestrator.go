package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/DsGrab/internal/crawlers"
	"github.com/RecoveryAshes/DsGrab/internal/downloaders"
	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
)

// Orchestrator 采集编排器
// 串起发现 -> 分类 -> 级联下载三个阶段
// 单个种子或候选的失败只记录不中断, 一次运行总是走到报告生成
type Orchestrator struct {
	config         *Config
	headerProvider models.HeaderProvider
	discoverer     *crawlers.PageDiscoverer
	classifier     *crawlers.Classifier
	cascade        *downloaders.Cascade
	reporter       *utils.Reporter
	seen           *crawlers.LinkSet
	assignedNames  map[string]bool
}

// NewOrchestrator 创建编排器
func NewOrchestrator(cfg *Config, headerProvider models.HeaderProvider) *Orchestrator {
	cascade := downloaders.NewCascade(
		downloaders.NewDriveStrategy(cfg.Acquire.DriveEnabled, cfg.Acquire.FetchTimeout, headerProvider),
		downloaders.NewWgetStrategy(cfg.Acquire.ExternalTool),
		downloaders.NewStreamStrategy(cfg.Acquire, headerProvider),
	)

	return &Orchestrator{
		config:         cfg,
		headerProvider: headerProvider,
		discoverer:     crawlers.NewPageDiscoverer(cfg.Acquire.PageTimeout, headerProvider),
		classifier:     crawlers.NewClassifier(cfg.Classify),
		cascade:        cascade,
		reporter:       utils.NewReporter(cfg.Output.BaseDir),
		seen:           crawlers.NewLinkSet(),
		assignedNames:  make(map[string]bool),
	}
}

// Run 执行一次完整运行
// mode决定阶段组合; directURLs仅在direct_urls模式下使用
// 返回的报告总是非nil, error只代表报告落盘等基础设施故障
func (o *Orchestrator) Run(ctx context.Context, mode models.RunMode, directURLs []string) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     models.NewID(),
		Mode:      mode,
		OutputDir: o.config.Output.BaseDir,
		StartTime: time.Now(),
		Config:    o.config.Acquire,
	}

	utils.Infof("🚀 开始采集运行: id=%s mode=%s outdir=%s", report.RunID, mode, report.OutputDir)

	var candidates []models.Candidate
	switch mode {
	case models.ModeDirectURLs:
		candidates = o.collectDirect(directURLs)
	default:
		candidates = o.discoverAll(ctx, report)
	}

	if mode != models.ModeDiscoverOnly {
		o.acquireAll(ctx, report, candidates)
	}

	if ctx.Err() != nil {
		report.Interrupted = true
		utils.Warn("⚠️  运行被中断, 已完成的结果保持有效")
	}

	report.EndTime = time.Now()
	report.Stats.Duration = report.EndTime.Sub(report.StartTime).Seconds()
	report.Stats.TotalBytes = sumBytes(report.Results)
	report.Recount()

	// 仅发现模式对输出目录零写入, 报告只进日志不落盘
	if mode != models.ModeDiscoverOnly {
		if err := o.reporter.GenerateReport(report); err != nil {
			return report, fmt.Errorf("生成报告失败: %w", err)
		}
	}

	o.printSummary(report, candidates)
	return report, nil
}

// discoverAll 发现阶段: 逐个种子页面抓取锚点并分类
// 候选跨种子页面按URL去重, 先发现者保留
func (o *Orchestrator) discoverAll(ctx context.Context, report *models.RunReport) []models.Candidate {
	var candidates []models.Candidate

	for i, seedURL := range o.config.Seeds {
		if ctx.Err() != nil {
			break
		}

		utils.Infof("\n==================== 种子 [%d/%d] ====================", i+1, len(o.config.Seeds))
		utils.Infof("🔍 发现页面: %s", seedURL)

		links, err := o.discoverer.Discover(seedURL)
		if err != nil {
			// 单个种子失败不中断发现阶段
			utils.Errorf("❌ 页面发现失败 [%s]: %v", seedURL, err)
			report.PageFailures = append(report.PageFailures, models.PageFailure{
				SeedURL:  seedURL,
				ErrorMsg: err.Error(),
				FailedAt: time.Now(),
			})
			continue
		}

		page := models.PageDiscovery{SeedURL: seedURL, Links: len(links)}
		for _, link := range links {
			candidate, ok := o.classifier.Classify(link, seedURL)
			if !ok {
				continue
			}
			page.Candidates = append(page.Candidates, candidate)
			if o.seen.MarkSeen(candidate.URL) {
				candidates = append(candidates, candidate)
			}
		}
		report.Pages = append(report.Pages, page)

		utils.Infof("✅ 发现完成: %d个链接, %d个候选", page.Links, len(page.Candidates))
	}

	utils.Infof("\n📋 发现阶段结束: 去重后共%d个候选", len(candidates))
	return candidates
}

// collectDirect 直连模式: 操作者提供的URL直接作为候选
// 跳过启发式闸门, 但仍识别来源类型以选择策略
func (o *Orchestrator) collectDirect(directURLs []string) []models.Candidate {
	var candidates []models.Candidate
	for _, rawURL := range directURLs {
		if err := models.ValidateURL(rawURL); err != nil {
			utils.Errorf("❌ 跳过非法URL %s: %v", rawURL, err)
			continue
		}
		if !o.seen.MarkSeen(rawURL) {
			continue
		}
		kind := o.classifier.DetectKind(rawURL)
		candidates = append(candidates, models.NewCandidate(rawURL, "", kind))
	}
	return candidates
}

// acquireAll 下载阶段: 对每个候选依次执行策略级联
// 结果逐条落盘, 中途断电也不丢已完成的记录
func (o *Orchestrator) acquireAll(ctx context.Context, report *models.RunReport, candidates []models.Candidate) {
	delay := time.Duration(o.config.Acquire.PolitenessDelay) * time.Second

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		utils.Infof("\n-------------------- 候选 [%d/%d] --------------------", i+1, len(candidates))
		utils.Infof("📥 处理候选: %s (%s)", candidate.URL, candidate.Kind)

		target := models.DownloadTarget{
			OutputDir: o.config.Output.BaseDir,
			Filename:  o.resolveFilename(candidate.InferredFilename),
		}

		result := o.cascade.Acquire(ctx, candidate, target)
		report.Results = append(report.Results, result)

		if err := o.reporter.AppendResult(result); err != nil {
			utils.Warnf("结果落盘失败: %v", err)
		}

		// 候选之间的礼貌延迟(最后一个不需要)
		if i < len(candidates)-1 && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
	}
}

// resolveFilename 解决同一输出目录内的文件名冲突
// 已存在的文件或本轮已分配的名字都算占用, 依次追加编号
func (o *Orchestrator) resolveFilename(filename string) string {
	if !o.nameTaken(filename) {
		o.assignedNames[filename] = true
		return filename
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		numbered := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !o.nameTaken(numbered) {
			o.assignedNames[numbered] = true
			return numbered
		}
	}
}

func (o *Orchestrator) nameTaken(filename string) bool {
	if o.assignedNames[filename] {
		return true
	}
	_, err := os.Stat(filepath.Join(o.config.Output.BaseDir, filename))
	return err == nil
}

func sumBytes(results []models.CandidateResult) int64 {
	var total int64
	for _, result := range results {
		for _, attempt := range result.Attempts {
			if attempt.Outcome == models.OutcomeSuccess {
				total += attempt.Bytes
			}
		}
	}
	return total
}

// printSummary 打印运行摘要
func (o *Orchestrator) printSummary(report *models.RunReport, candidates []models.Candidate) {
	utils.Info("\n==================================================")
	utils.Info("📊 运行摘要")
	utils.Info("==================================================")
	utils.Infof("种子页面: %d (失败 %d)", report.Stats.SeedPages, report.Stats.FailedPages)
	utils.Infof("候选总数: %d", len(candidates))
	utils.Infof("✅ 下载成功: %d", report.Stats.Downloaded)
	utils.Infof("❌ 下载失败: %d", report.Stats.Failed)
	utils.Infof("📦 总大小: %.2f MB", float64(report.Stats.TotalBytes)/(1024*1024))
	utils.Infof("⏱️  总耗时: %.2f秒", report.Stats.Duration)
	utils.Info("==================================================")

	// 仅发现模式不落盘, 候选清单直接打进日志
	if report.Mode == models.ModeDiscoverOnly {
		for _, c := range candidates {
			utils.Infof("  [%s] %s", c.Kind, c.URL)
		}
	}

	// 需人工处理的候选单独列出
	manual := make([]string, 0)
	for _, result := range report.Results {
		if result.ManualURL != "" {
			manual = append(manual, result.ManualURL)
		}
	}
	if len(manual) > 0 {
		utils.Warn("\n⚠️  以下URL需在浏览器中人工处理:")
		for _, rawURL := range manual {
			utils.Warnf("  - %s", rawURL)
		}
	}
}
