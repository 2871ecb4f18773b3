package downloaders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/RecoveryAshes/DsGrab/internal/models"
)

func driveCandidate(rawURL string) models.Candidate {
	return models.NewCandidate(rawURL, "https://seed.example/", models.KindCloudDrive)
}

func TestDriveStrategyApplies(t *testing.T) {
	strategy := NewDriveStrategy(true, 10, nil)

	if !strategy.Applies(driveCandidate("https://drive.google.com/file/d/abc123/view")) {
		t.Error("云盘候选应适用")
	}
	if strategy.Applies(models.NewCandidate("https://host.example/a.zip", "", models.KindDirectFile)) {
		t.Error("直接文件候选不应适用")
	}
}

func TestDriveStrategyAttempt(t *testing.T) {
	payload := "drive-file-content"
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uc":
			id := r.URL.Query().Get("id")
			switch id {
			case "small000":
				w.Header().Set("Content-Type", "application/octet-stream")
				fmt.Fprint(w, payload)
			case "large000":
				if r.URL.Query().Get("confirm") == "t" {
					w.Header().Set("Content-Type", "application/octet-stream")
					fmt.Fprint(w, payload)
					return
				}
				// 病毒扫描确认页(新版表单)
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprintf(w, `<html><body>
					<form id="download-form" action="%s/uc" method="get">
						<input type="hidden" name="id" value="large000">
						<input type="hidden" name="export" value="download">
						<input type="hidden" name="confirm" value="t">
					</form>
				</body></html>`, server.URL)
			case "legacy00":
				if r.URL.Query().Get("confirm") != "" {
					w.Header().Set("Content-Type", "application/octet-stream")
					fmt.Fprint(w, payload)
					return
				}
				// 旧版确认页锚点
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><body><a id="uc-download-link" href="/uc?export=download&id=legacy00&confirm=x">仍要下载</a></body></html>`)
			case "quota000":
				// 无任何下载入口的错误页
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><body><p>下载配额已超出</p></body></html>`)
			default:
				http.NotFound(w, r)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	newStrategy := func() *DriveStrategy {
		s := NewDriveStrategy(true, 10, nil)
		s.SetBaseURL(server.URL)
		return s
	}

	t.Run("小文件直接下载", func(t *testing.T) {
		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "small.zip"}
		attempt, err := newStrategy().Attempt(context.Background(),
			driveCandidate("https://drive.google.com/file/d/small000/view"), target)
		if err != nil {
			t.Fatalf("不应返回错误: %v", err)
		}
		if attempt.Outcome != models.OutcomeSuccess {
			t.Fatalf("期望success, 实际=%s (%s)", attempt.Outcome, attempt.Detail)
		}
		data, _ := os.ReadFile(target.Path())
		if string(data) != payload {
			t.Errorf("文件内容不符: %q", data)
		}
	})

	t.Run("大文件经确认表单二次请求", func(t *testing.T) {
		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "large.zip"}
		attempt, _ := newStrategy().Attempt(context.Background(),
			driveCandidate("https://drive.google.com/file/d/large000/view"), target)
		if attempt.Outcome != models.OutcomeSuccess {
			t.Fatalf("期望success, 实际=%s (%s)", attempt.Outcome, attempt.Detail)
		}
		data, _ := os.ReadFile(target.Path())
		if string(data) != payload {
			t.Errorf("文件内容不符: %q", data)
		}
	})

	t.Run("旧版确认锚点也能跟随", func(t *testing.T) {
		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "legacy.zip"}
		attempt, _ := newStrategy().Attempt(context.Background(),
			driveCandidate("https://drive.google.com/open?id=legacy00"), target)
		if attempt.Outcome != models.OutcomeSuccess {
			t.Fatalf("期望success, 实际=%s (%s)", attempt.Outcome, attempt.Detail)
		}
	})

	t.Run("无下载入口的HTML为不可恢复失败", func(t *testing.T) {
		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "quota.zip"}
		attempt, err := newStrategy().Attempt(context.Background(),
			driveCandidate("https://drive.google.com/file/d/quota000/view"), target)
		if attempt.Outcome != models.OutcomeFatalFailure {
			t.Fatalf("期望fatal_failure, 实际=%s", attempt.Outcome)
		}
		if !errors.Is(err, ErrManualRequired) {
			t.Errorf("期望ErrManualRequired, 实际=%v", err)
		}
	})

	t.Run("ID无法解析为不可恢复失败", func(t *testing.T) {
		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "x.zip"}
		attempt, err := newStrategy().Attempt(context.Background(),
			driveCandidate("https://drive.google.com/drive/folders/"), target)
		if attempt.Outcome != models.OutcomeFatalFailure {
			t.Fatalf("期望fatal_failure, 实际=%s", attempt.Outcome)
		}
		if !errors.Is(err, ErrIdentifierUnresolved) {
			t.Errorf("期望ErrIdentifierUnresolved, 实际=%v", err)
		}
	})

	t.Run("能力未启用为capability_unavailable", func(t *testing.T) {
		disabled := NewDriveStrategy(false, 10, nil)
		disabled.SetBaseURL(server.URL)

		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "x.zip"}
		attempt, err := disabled.Attempt(context.Background(),
			driveCandidate("https://drive.google.com/file/d/small000/view"), target)
		if attempt.Outcome != models.OutcomeCapabilityUnavailable {
			t.Fatalf("期望capability_unavailable, 实际=%s", attempt.Outcome)
		}
		if !errors.Is(err, ErrCapabilityUnavailable) {
			t.Errorf("期望ErrCapabilityUnavailable, 实际=%v", err)
		}
	})

	t.Run("传输错误为暂时失败", func(t *testing.T) {
		broken := NewDriveStrategy(true, 1, nil)
		broken.SetBaseURL("http://127.0.0.1:1")

		target := models.DownloadTarget{OutputDir: t.TempDir(), Filename: "x.zip"}
		attempt, _ := broken.Attempt(context.Background(),
			driveCandidate("https://drive.google.com/file/d/small000/view"), target)
		if attempt.Outcome != models.OutcomeTransientFailure {
			t.Errorf("期望transient_failure, 实际=%s", attempt.Outcome)
		}
	})
}

func TestParseConfirmPage(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantOK  bool
		wantURL string
	}{
		{
			name: "表单action与隐藏字段合成URL",
			html: `<form id="download-form" action="https://drive.usercontent.google.com/download">
				<input type="hidden" name="id" value="abc"><input type="hidden" name="confirm" value="t"></form>`,
			wantOK:  true,
			wantURL: "https://drive.usercontent.google.com/download?confirm=t&id=abc",
		},
		{
			name:    "confirm兜底链接",
			html:    `<a href="/uc?id=abc&confirm=t">download anyway</a>`,
			wantOK:  true,
			wantURL: "https://drive.google.com/uc?id=abc&confirm=t",
		},
		{
			name:   "无任何入口",
			html:   `<p>quota exceeded</p>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseConfirmPage([]byte("<html><body>"+tt.html+"</body></html>"),
				"https://drive.google.com/uc?export=download&id=abc")
			if ok != tt.wantOK {
				t.Fatalf("期望ok=%v, 实际=%v", tt.wantOK, ok)
			}
			if ok && got != tt.wantURL {
				t.Errorf("期望URL=%s, 实际=%s", tt.wantURL, got)
			}
		})
	}
}
