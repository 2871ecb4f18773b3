package downloaders

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
)

// WgetStrategy 调用外部wget执行下载
// wget自带断点续传(-c), 同一候选重跑时会从.part的末尾继续
type WgetStrategy struct {
	tool     string
	lookPath func(string) (string, error)
}

// NewWgetStrategy 创建外部工具策略
// tool为空时默认wget
func NewWgetStrategy(tool string) *WgetStrategy {
	if tool == "" {
		tool = "wget"
	}
	return &WgetStrategy{
		tool:     tool,
		lookPath: exec.LookPath,
	}
}

func (s *WgetStrategy) Name() string {
	return "wget"
}

// Applies 云盘分享页不是直接文件, wget抓下来只是HTML, 跳过
func (s *WgetStrategy) Applies(candidate models.Candidate) bool {
	return candidate.Kind != models.KindCloudDrive
}

func (s *WgetStrategy) Attempt(ctx context.Context, candidate models.Candidate, target models.DownloadTarget) (models.DownloadAttempt, error) {
	attempt := models.DownloadAttempt{}

	toolPath, err := s.lookPath(s.tool)
	if err != nil {
		attempt.Outcome = models.OutcomeCapabilityUnavailable
		attempt.Detail = fmt.Sprintf("外部工具 %s 不存在", s.tool)
		return attempt, ErrCapabilityUnavailable
	}

	if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("创建输出目录失败: %v", err)
		return attempt, nil
	}

	partPath := target.Path() + partSuffix
	utils.Infof("🚀 调用 %s 下载: %s", s.tool, candidate.URL)

	cmd := exec.CommandContext(ctx, toolPath, "-c", candidate.URL, "-O", partPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// .part保留给下次-c续传, 不会被当成完整文件
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("%s 退出异常: %v (%s)", s.tool, err, tailOf(output, 200))
		return attempt, nil
	}

	info, err := os.Stat(partPath)
	if err != nil {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("下载产物缺失: %v", err)
		return attempt, nil
	}

	if err := os.Rename(partPath, target.Path()); err != nil {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("重命名失败: %v", err)
		return attempt, nil
	}

	attempt.Outcome = models.OutcomeSuccess
	attempt.Detail = fmt.Sprintf("%s 下载完成, %d 字节", s.tool, info.Size())
	attempt.Bytes = info.Size()
	return attempt, nil
}

// tailOf 截取输出末尾,避免日志刷屏
func tailOf(output []byte, limit int) string {
	if len(output) <= limit {
		return string(output)
	}
	return "..." + string(output[len(output)-limit:])
}
