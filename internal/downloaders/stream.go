package downloaders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
	"github.com/shirou/gopsutil/v3/disk"
)

// StreamStrategy 内置HTTP流式下载, 级联的最后一环
// 没有外部依赖, 能力永远可用; 它失败意味着候选只能人工处理
type StreamStrategy struct {
	timeout        time.Duration
	chunkSize      int
	minFreeDiskMB  uint64
	headerProvider models.HeaderProvider
	diskUsage      func(path string) (*disk.UsageStat, error)
}

// NewStreamStrategy 创建流式下载策略
func NewStreamStrategy(cfg models.AcquireConfig, headerProvider models.HeaderProvider) *StreamStrategy {
	return &StreamStrategy{
		timeout:        time.Duration(cfg.FetchTimeout) * time.Second,
		chunkSize:      cfg.ChunkSize,
		minFreeDiskMB:  uint64(cfg.MinFreeDiskMB),
		headerProvider: headerProvider,
		diskUsage:      disk.Usage,
	}
}

func (s *StreamStrategy) Name() string {
	return "stream_http"
}

// Applies 兜底策略, 对所有候选适用
func (s *StreamStrategy) Applies(candidate models.Candidate) bool {
	return true
}

func (s *StreamStrategy) Attempt(ctx context.Context, candidate models.Candidate, target models.DownloadTarget) (models.DownloadAttempt, error) {
	attempt := models.DownloadAttempt{}

	if s.minFreeDiskMB > 0 {
		if err := s.checkDiskSpace(target.OutputDir); err != nil {
			// 磁盘满时继续写只会产生损坏的半截文件
			attempt.Outcome = models.OutcomeFatalFailure
			attempt.Detail = err.Error()
			return attempt, nil
		}
	}

	utils.Infof("🚀 开始流式下载: %s -> %s", candidate.URL, target.Path())

	// 空闲看门狗取代总时长上限: 字节还在流动的传输永远不会被超时打断
	watchCtx, stop, keepAlive := idleWatchdog(ctx, s.timeout)
	defer stop()

	req, err := http.NewRequestWithContext(watchCtx, http.MethodGet, candidate.URL, nil)
	if err != nil {
		attempt.Outcome = models.OutcomeFatalFailure
		attempt.Detail = fmt.Sprintf("构造请求失败: %v", err)
		return attempt, nil
	}
	if s.headerProvider != nil {
		headers, err := s.headerProvider.GetHeaders()
		if err != nil {
			attempt.Outcome = models.OutcomeFatalFailure
			attempt.Detail = fmt.Sprintf("获取请求头失败: %v", err)
			return attempt, nil
		}
		for key, values := range headers {
			// 保留transport的自动解压, 不透传Accept-Encoding
			if strings.EqualFold(key, "Accept-Encoding") {
				continue
			}
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}

	client := &http.Client{
		Transport: newStreamTransport(s.timeout),
	}

	resp, err := client.Do(req)
	if err != nil {
		// 最后一环失败即终局, 连接错误也不例外
		attempt.Outcome = models.OutcomeFatalFailure
		attempt.Detail = fmt.Sprintf("请求失败: %v", err)
		return attempt, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		attempt.Outcome = models.OutcomeFatalFailure
		attempt.Detail = fmt.Sprintf("HTTP状态异常: %d", resp.StatusCode)
		return attempt, nil
	}

	written, err := writeToTarget(watchCtx, resp.Body, resp.ContentLength, target, s.chunkSize, keepAlive)
	if err != nil {
		attempt.Outcome = models.OutcomeFatalFailure
		attempt.Detail = err.Error()
		return attempt, nil
	}

	attempt.Outcome = models.OutcomeSuccess
	attempt.Detail = fmt.Sprintf("流式下载完成, %d 字节", written)
	attempt.Bytes = written
	return attempt, nil
}

// checkDiskSpace 下载前检查输出目录所在分区的剩余空间
func (s *StreamStrategy) checkDiskSpace(outputDir string) error {
	usage, err := s.diskUsage(outputDir)
	if err != nil {
		// 查询不到就放行, 空间检查只是防护不是门禁
		utils.Debugf("磁盘空间查询失败, 跳过检查: %v", err)
		return nil
	}
	freeMB := usage.Free / (1024 * 1024)
	if freeMB < s.minFreeDiskMB {
		return fmt.Errorf("磁盘剩余空间不足: %dMB < %dMB", freeMB, s.minFreeDiskMB)
	}
	return nil
}
