package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
// 负责两类输出:
//  1. outcomes.jsonl - 每个候选完成后立即追加一行,保证运行中断时部分结果依然可见
//  2. run_report.json等 - 运行结束时的聚合报告
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
	}
}

// reportsDir 返回报告目录路径
func (r *Reporter) reportsDir() string {
	return filepath.Join(r.outputDir, "reports")
}

// AppendResult 追加单个候选结果到outcomes.jsonl
// 每行一个JSON对象,写入后立即对外可见
func (r *Reporter) AppendResult(result models.CandidateResult) error {
	if err := os.MkdirAll(r.reportsDir(), 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	line, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化候选结果失败: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(r.reportsDir(), "outcomes.jsonl"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开outcomes.jsonl失败: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("写入候选结果失败: %w", err)
	}
	return nil
}

// GenerateReport 生成运行聚合报告
// 输出: run_report.json(全量)、candidates.json(候选列表)、failed_candidates.json(失败列表)
func (r *Reporter) GenerateReport(report *models.RunReport) error {
	if err := os.MkdirAll(r.reportsDir(), 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	if err := r.saveJSONReport("run_report.json", report); err != nil {
		return err
	}

	// 候选列表(含来源页面,便于操作者核对)
	candidates := make([]models.Candidate, 0)
	for _, page := range report.Pages {
		candidates = append(candidates, page.Candidates...)
	}
	if err := r.saveJSONReport("candidates.json", candidates); err != nil {
		return err
	}

	// 失败候选列表,人工处理的URL原样给出
	failed := make([]models.CandidateResult, 0)
	for _, result := range report.Results {
		if !result.Succeeded() {
			failed = append(failed, result)
		}
	}
	if err := r.saveJSONReport("failed_candidates.json", failed); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", r.reportsDir())
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	path := filepath.Join(r.reportsDir(), filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewByteProgressBar 创建字节进度条(服务器通告Content-Length时使用)
func NewByteProgressBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// NewSpinner 创建未知大小传输的旋转进度指示
func NewSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSpinnerType(14),
	)
}
