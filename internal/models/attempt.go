package models

import "time"

// AttemptOutcome 单次下载尝试的结果
type AttemptOutcome string

const (
	// OutcomeSuccess 下载成功,级联终止
	OutcomeSuccess AttemptOutcome = "success"

	// OutcomeCapabilityUnavailable 策略的前置工具/服务在本环境不可用
	// 注意: 这不是传输失败,级联应落入下一个策略
	OutcomeCapabilityUnavailable AttemptOutcome = "capability_unavailable"

	// OutcomeTransientFailure 策略自身的临时性失败(如外部工具非零退出)
	OutcomeTransientFailure AttemptOutcome = "transient_failure"

	// OutcomeFatalFailure 对此候选不可恢复的失败(如云盘ID无法解析、流式下载网络错误)
	OutcomeFatalFailure AttemptOutcome = "fatal_failure"
)

// CandidateStatus 候选的终态
type CandidateStatus string

const (
	StatusDownloaded CandidateStatus = "downloaded" // 某个策略成功
	StatusFailed     CandidateStatus = "failed"     // 所有策略耗尽
)

// DownloadAttempt 一个候选上一个策略的一次尝试
// 保证: 每个候选上每个策略至多记录一次尝试
type DownloadAttempt struct {
	Strategy string         `json:"strategy"`          // 策略名称
	Outcome  AttemptOutcome `json:"outcome"`           // 尝试结果
	Detail   string         `json:"detail,omitempty"`  // 失败原因等补充信息
	Bytes    int64          `json:"bytes,omitempty"`   // 成功传输的字节数
	Duration float64        `json:"duration"`          // 耗时(秒)
}

// CandidateResult 一个候选走完级联后的最终结果
type CandidateResult struct {
	Candidate Candidate         `json:"candidate"`
	Target    DownloadTarget    `json:"target"`
	Status    CandidateStatus   `json:"status"`
	Attempts  []DownloadAttempt `json:"attempts"`

	// ManualURL 需要人工处理时(云盘ID无法解析、需要手动同意)
	// 报告中给出操作者应在浏览器中打开的原始URL
	ManualURL string `json:"manual_url,omitempty"`

	CompletedAt time.Time `json:"completed_at"`
}

// Succeeded 判断候选是否下载成功
func (r *CandidateResult) Succeeded() bool {
	return r.Status == StatusDownloaded
}

// RecordAttempt 追加一次策略尝试并维护终态
// 级联在第一个success处停止,由调用方保证不再追加
func (r *CandidateResult) RecordAttempt(a DownloadAttempt) {
	r.Attempts = append(r.Attempts, a)
	if a.Outcome == OutcomeSuccess {
		r.Status = StatusDownloaded
	} else {
		r.Status = StatusFailed
	}
}
