package downloaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/DsGrab/internal/crawlers"
	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
)

// DefaultDriveBaseURL Google Drive下载端点
const DefaultDriveBaseURL = "https://drive.google.com"

// DriveStrategy 云盘分享链接专用策略
// 从分享URL解析文件ID,通过uc?export=download端点获取文件,
// 大文件会返回HTML确认页(病毒扫描提示),需解析确认表单后二次请求
type DriveStrategy struct {
	baseURL        string
	enabled        bool
	timeout        time.Duration
	headerProvider models.HeaderProvider
}

// NewDriveStrategy 创建云盘策略
// enabled=false表示本环境不具备云盘下载能力,所有尝试报告capability_unavailable
func NewDriveStrategy(enabled bool, fetchTimeoutSec int, headerProvider models.HeaderProvider) *DriveStrategy {
	return &DriveStrategy{
		baseURL:        DefaultDriveBaseURL,
		enabled:        enabled,
		timeout:        time.Duration(fetchTimeoutSec) * time.Second,
		headerProvider: headerProvider,
	}
}

// SetBaseURL 覆盖端点地址(测试用)
func (s *DriveStrategy) SetBaseURL(baseURL string) {
	s.baseURL = strings.TrimRight(baseURL, "/")
}

func (s *DriveStrategy) Name() string {
	return "gdrive"
}

// Applies 仅处理云盘候选,其他来源交给后续策略
func (s *DriveStrategy) Applies(candidate models.Candidate) bool {
	return candidate.Kind == models.KindCloudDrive
}

func (s *DriveStrategy) Attempt(ctx context.Context, candidate models.Candidate, target models.DownloadTarget) (models.DownloadAttempt, error) {
	attempt := models.DownloadAttempt{}

	fileID, ok := crawlers.ExtractDriveID(candidate.URL)
	if !ok {
		// 没有文件ID就没有可下载的对象,换策略也无济于事
		attempt.Outcome = models.OutcomeFatalFailure
		attempt.Detail = "分享URL中未找到文件ID"
		return attempt, ErrIdentifierUnresolved
	}

	if !s.enabled {
		attempt.Outcome = models.OutcomeCapabilityUnavailable
		attempt.Detail = "云盘下载能力未启用"
		return attempt, ErrCapabilityUnavailable
	}

	utils.Infof("🚀 开始云盘下载: id=%s -> %s", fileID, target.Path())

	// 确认页流程依赖会话cookie
	jar, err := cookiejar.New(nil)
	if err != nil {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("创建cookie jar失败: %v", err)
		return attempt, nil
	}
	client := &http.Client{
		Jar:       jar,
		Transport: newStreamTransport(s.timeout),
	}

	// 大文件传输受空闲看门狗约束, 而非总时长上限
	watchCtx, stop, keepAlive := idleWatchdog(ctx, s.timeout)
	defer stop()

	downloadURL := fmt.Sprintf("%s/uc?export=download&id=%s", s.baseURL, url.QueryEscape(fileID))

	resp, err := s.get(watchCtx, client, downloadURL)
	if err != nil {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("请求失败: %v", err)
		return attempt, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("HTTP状态异常: %d", resp.StatusCode)
		return attempt, nil
	}

	// 先读一小段判断是文件本体还是确认页
	head := make([]byte, 1024)
	n, _ := io.ReadFull(resp.Body, head)
	head = head[:n]
	keepAlive()

	if crawlers.LooksLikeHTML(resp.Header.Get("Content-Type"), head) {
		consentBody := &contextReader{
			ctx:    watchCtx,
			r:      io.MultiReader(strings.NewReader(string(head)), resp.Body),
			onRead: keepAlive,
		}
		body, readErr := io.ReadAll(consentBody)
		resp.Body.Close()
		if readErr != nil {
			attempt.Outcome = models.OutcomeTransientFailure
			attempt.Detail = fmt.Sprintf("读取确认页失败: %v", readErr)
			return attempt, nil
		}

		confirmURL, ok := parseConfirmPage(body, downloadURL)
		if !ok {
			// 确认页没有可跟随的下载入口, 通常是权限/配额问题
			attempt.Outcome = models.OutcomeFatalFailure
			attempt.Detail = "云盘返回确认页但无下载入口, 可能需要登录或配额受限"
			return attempt, ErrManualRequired
		}

		utils.Debugf("跟随云盘确认页: %s", confirmURL)
		resp, err = s.get(watchCtx, client, confirmURL)
		if err != nil {
			attempt.Outcome = models.OutcomeTransientFailure
			attempt.Detail = fmt.Sprintf("确认请求失败: %v", err)
			return attempt, nil
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			attempt.Outcome = models.OutcomeTransientFailure
			attempt.Detail = fmt.Sprintf("确认请求HTTP状态异常: %d", resp.StatusCode)
			return attempt, nil
		}

		head = make([]byte, 1024)
		n, _ = io.ReadFull(resp.Body, head)
		head = head[:n]
		keepAlive()

		if crawlers.LooksLikeHTML(resp.Header.Get("Content-Type"), head) {
			// 二次请求仍是HTML, 不再递归跟随
			attempt.Outcome = models.OutcomeFatalFailure
			attempt.Detail = "确认后仍返回HTML页面, 无法自动获取文件"
			return attempt, ErrManualRequired
		}
	}

	body := io.MultiReader(strings.NewReader(string(head)), resp.Body)
	written, err := writeToTarget(watchCtx, body, resp.ContentLength, target, defaultChunkSize, keepAlive)
	if err != nil {
		attempt.Outcome = models.OutcomeTransientFailure
		attempt.Detail = fmt.Sprintf("写入文件失败: %v", err)
		return attempt, nil
	}

	attempt.Outcome = models.OutcomeSuccess
	attempt.Detail = fmt.Sprintf("云盘下载完成, %d 字节", written)
	attempt.Bytes = written
	return attempt, nil
}

func (s *DriveStrategy) get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if s.headerProvider != nil {
		headers, err := s.headerProvider.GetHeaders()
		if err != nil {
			return nil, err
		}
		for key, values := range headers {
			// 自定义Accept-Encoding会禁用transport自动解压, 此处不透传
			if strings.EqualFold(key, "Accept-Encoding") {
				continue
			}
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}
	return client.Do(req)
}

// parseConfirmPage 从病毒扫描确认页中提取可跟随的下载URL
// 依次尝试: 确认表单(action+隐藏字段) -> uc-download-link锚点 -> 含confirm=的链接
func parseConfirmPage(body []byte, pageURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", false
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	// 新版确认页是一个带隐藏字段的GET表单
	if form := doc.Find("form#download-form").First(); form.Length() > 0 {
		action, _ := form.Attr("action")
		actionURL, err := url.Parse(action)
		if err == nil && action != "" {
			actionURL = base.ResolveReference(actionURL)
			query := actionURL.Query()
			form.Find("input[type=hidden]").Each(func(_ int, sel *goquery.Selection) {
				name, _ := sel.Attr("name")
				value, _ := sel.Attr("value")
				if name != "" {
					query.Set(name, value)
				}
			})
			actionURL.RawQuery = query.Encode()
			return actionURL.String(), true
		}
	}

	// 旧版确认页是一个锚点
	if link := doc.Find("a#uc-download-link").First(); link.Length() > 0 {
		if href, ok := link.Attr("href"); ok {
			if hrefURL, err := url.Parse(href); err == nil {
				return base.ResolveReference(hrefURL).String(), true
			}
		}
	}

	// 兜底: 任何携带confirm参数的站内链接
	var confirmURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "confirm=") {
			if hrefURL, err := url.Parse(href); err == nil {
				confirmURL = base.ResolveReference(hrefURL).String()
				return false
			}
		}
		return true
	})
	if confirmURL != "" {
		return confirmURL, true
	}

	return "", false
}
