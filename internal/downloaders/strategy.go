package downloaders

import (
	"context"
	"errors"
	"time"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
)

var (
	// ErrCapabilityUnavailable 策略的前置工具/服务在本环境不可用
	ErrCapabilityUnavailable = errors.New("策略能力不可用")

	// ErrManualRequired 需要操作者人工处理(在浏览器中打开原始URL)
	ErrManualRequired = errors.New("需要人工处理")

	// ErrIdentifierUnresolved 云盘分享URL中无法解析出文件ID
	// 自动重试无法解决,必须人工处理
	ErrIdentifierUnresolved = errors.New("无法解析云盘文件ID")
)

// Strategy 下载策略接口
// 每个策略独立判断自身是否适用、能力是否可用,
// 并把一次尝试的结果表达为DownloadAttempt值,而不是抛出控制流
type Strategy interface {
	// Name 策略名称,用于尝试记录与日志
	Name() string

	// Applies 此策略是否适用于该候选
	Applies(candidate models.Candidate) bool

	// Attempt 对候选执行一次下载尝试
	// 返回的DownloadAttempt需填写Outcome/Detail/Bytes;
	// error用于级联的走向判断(哨兵错误),正常失败也通过Outcome表达
	Attempt(ctx context.Context, candidate models.Candidate, target models.DownloadTarget) (models.DownloadAttempt, error)
}

// Cascade 策略级联
// 按固定优先级顺序尝试各策略,直到首个成功或全部耗尽
// 保证: 每个适用策略恰好记录一次尝试;失败的候选绝不静默丢弃
type Cascade struct {
	strategies []Strategy
}

// NewCascade 创建策略级联,策略顺序即优先级顺序
func NewCascade(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// Acquire 对单个候选执行完整级联
// 走向规则:
//   - success: 级联终止,候选为downloaded
//   - capability_unavailable / transient_failure: 落入下一个适用策略
//   - fatal_failure: 级联终止,候选为failed
//     (云盘ID无法解析时继续尝试也不会改变结果,只是浪费时间)
func (c *Cascade) Acquire(ctx context.Context, candidate models.Candidate, target models.DownloadTarget) models.CandidateResult {
	result := models.CandidateResult{
		Candidate: candidate,
		Target:    target,
		Status:    models.StatusFailed,
	}

	for _, strategy := range c.strategies {
		if !strategy.Applies(candidate) {
			continue
		}

		if ctx.Err() != nil {
			// 取消后不再发起新的尝试,已记录的结果保持有效
			break
		}

		start := time.Now()
		attempt, err := strategy.Attempt(ctx, candidate, target)
		attempt.Strategy = strategy.Name()
		attempt.Duration = time.Since(start).Seconds()

		result.RecordAttempt(attempt)

		switch attempt.Outcome {
		case models.OutcomeSuccess:
			utils.Infof("📥 下载成功 [%s]: %s -> %s", strategy.Name(), candidate.URL, target.Path())
			result.CompletedAt = time.Now()
			return result

		case models.OutcomeCapabilityUnavailable:
			utils.Debugf("策略 %s 能力不可用, 尝试下一个策略: %s", strategy.Name(), candidate.URL)

		case models.OutcomeTransientFailure:
			utils.Warnf("策略 %s 失败 [%s]: %s", strategy.Name(), candidate.URL, attempt.Detail)

		case models.OutcomeFatalFailure:
			if errors.Is(err, ErrManualRequired) || errors.Is(err, ErrIdentifierUnresolved) {
				result.ManualURL = candidate.URL
				utils.Warnf("⚠️  需要人工处理, 请在浏览器中打开: %s", candidate.URL)
			} else {
				utils.Errorf("策略 %s 不可恢复失败 [%s]: %s", strategy.Name(), candidate.URL, attempt.Detail)
			}
			result.CompletedAt = time.Now()
			return result
		}
	}

	result.CompletedAt = time.Now()
	return result
}
