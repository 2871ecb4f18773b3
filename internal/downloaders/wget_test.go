package downloaders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/DsGrab/internal/models"
)

// writeFakeTool 生成一个可执行脚本模拟外部下载工具
// 参数约定与真实调用一致: -c <url> -O <part路径>
func writeFakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakewget")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("写入脚本失败: %v", err)
	}
	return path
}

func TestWgetStrategyApplies(t *testing.T) {
	strategy := NewWgetStrategy("")

	if strategy.Applies(models.NewCandidate("https://drive.google.com/file/d/x/view", "", models.KindCloudDrive)) {
		t.Error("云盘候选不应适用")
	}
	if !strategy.Applies(models.NewCandidate("https://host.example/a.zip", "", models.KindGenericHosted)) {
		t.Error("托管页候选应适用")
	}
	if !strategy.Applies(models.NewCandidate("https://host.example/a.zip", "", models.KindDirectFile)) {
		t.Error("直接文件候选应适用")
	}
}

func TestWgetStrategyAttempt(t *testing.T) {
	candidate := models.NewCandidate("https://host.example/data.zip", "", models.KindDirectFile)

	t.Run("工具不存在为capability_unavailable", func(t *testing.T) {
		strategy := NewWgetStrategy("wget")
		strategy.lookPath = func(string) (string, error) {
			return "", errors.New("not found")
		}

		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "data.zip"}
		attempt, err := strategy.Attempt(context.Background(), candidate, target)
		if attempt.Outcome != models.OutcomeCapabilityUnavailable {
			t.Fatalf("期望capability_unavailable, 实际=%s", attempt.Outcome)
		}
		if !errors.Is(err, ErrCapabilityUnavailable) {
			t.Errorf("期望ErrCapabilityUnavailable, 实际=%v", err)
		}
	})

	t.Run("工具成功后重命名为最终文件", func(t *testing.T) {
		tool := writeFakeTool(t, `printf 'downloaded-bytes' > "$4"`)
		strategy := NewWgetStrategy(tool)

		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "data.zip"}
		attempt, err := strategy.Attempt(context.Background(), candidate, target)
		if err != nil {
			t.Fatalf("不应返回错误: %v", err)
		}
		if attempt.Outcome != models.OutcomeSuccess {
			t.Fatalf("期望success, 实际=%s (%s)", attempt.Outcome, attempt.Detail)
		}
		if attempt.Bytes != int64(len("downloaded-bytes")) {
			t.Errorf("期望字节数=%d, 实际=%d", len("downloaded-bytes"), attempt.Bytes)
		}

		data, err := os.ReadFile(target.Path())
		if err != nil {
			t.Fatalf("读取下载文件失败: %v", err)
		}
		if string(data) != "downloaded-bytes" {
			t.Errorf("文件内容不符: %q", data)
		}
		if _, err := os.Stat(target.Path() + partSuffix); !os.IsNotExist(err) {
			t.Error("临时.part文件应被重命名")
		}
	})

	t.Run("工具退出非零为暂时失败且保留part", func(t *testing.T) {
		tool := writeFakeTool(t, `printf 'half' > "$4"; exit 8`)
		strategy := NewWgetStrategy(tool)

		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "data.zip"}
		attempt, err := strategy.Attempt(context.Background(), candidate, target)
		if err != nil {
			t.Fatalf("不应返回错误: %v", err)
		}
		if attempt.Outcome != models.OutcomeTransientFailure {
			t.Fatalf("期望transient_failure, 实际=%s", attempt.Outcome)
		}

		if _, err := os.Stat(target.Path()); !os.IsNotExist(err) {
			t.Error("失败时不应出现最终文件")
		}
		if _, err := os.Stat(target.Path() + partSuffix); err != nil {
			t.Error(".part文件应保留供续传")
		}
	})

	t.Run("取消后退出为暂时失败", func(t *testing.T) {
		tool := writeFakeTool(t, `sleep 30`)
		strategy := NewWgetStrategy(tool)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "data.zip"}
		attempt, _ := strategy.Attempt(ctx, candidate, target)
		if attempt.Outcome != models.OutcomeTransientFailure {
			t.Errorf("期望transient_failure, 实际=%s", attempt.Outcome)
		}
	})
}
