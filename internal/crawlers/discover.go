package crawlers

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
	"github.com/gocolly/colly/v2"
)

// PageDiscoverer 种子页面发现器(使用Colly)
// 契约: Discover(seedURL) → 文档顺序、页面内去重的绝对URL序列
// 页面级失败(网络错误/超时/非成功状态)以error返回,由编排器记录,
// 不得中断其他种子页面的发现
type PageDiscoverer struct {
	timeout time.Duration

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 锚点提取器
	extractor *LinkExtractor
}

// NewPageDiscoverer 创建页面发现器
// pageTimeout为单个种子页面的抓取超时(秒)
func NewPageDiscoverer(pageTimeout int, headerProvider models.HeaderProvider) *PageDiscoverer {
	if pageTimeout < 1 {
		pageTimeout = 20
	}
	return &PageDiscoverer{
		timeout:        time.Duration(pageTimeout) * time.Second,
		headerProvider: headerProvider,
		extractor:      NewLinkExtractor(),
	}
}

// Discover 抓取种子页面并提取全部锚点链接
// 每次调用创建独立的collector,种子页面之间完全隔离
func (d *PageDiscoverer) Discover(seedURL string) ([]string, error) {
	if err := models.ValidateURL(seedURL); err != nil {
		return nil, fmt.Errorf("无效的种子页面URL: %w", err)
	}

	// 自定义HTTP客户端: 禁用TLS证书验证,允许访问证书配置不规范的项目主页
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: d.timeout,
	}

	collector := colly.NewCollector()
	collector.SetClient(httpClient)
	collector.SetRequestTimeout(d.timeout)

	var (
		links    []string
		fetchErr error
	)

	// 应用自定义HTTP头部
	collector.OnRequest(func(r *colly.Request) {
		if d.headerProvider != nil {
			headers, err := d.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
		utils.Debugf("抓取种子页面: %s", r.URL.String())
	})

	// 以重定向后的最终URL为base解析相对引用
	collector.OnResponse(func(r *colly.Response) {
		// 自定义头部声明了Accept-Encoding时响应体可能是压缩的
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := DecompressBody(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压页面响应失败 [%s] (编码=%s): %v", seedURL, encoding, err)
			} else {
				body = decompressed
			}
		}

		extracted, err := d.extractor.ExtractAnchors(body, r.Request.URL.String())
		if err != nil {
			fetchErr = fmt.Errorf("提取页面链接失败: %w", err)
			return
		}
		links = extracted
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = fmt.Errorf("页面返回非成功状态 %d: %w", r.StatusCode, err)
		} else {
			fetchErr = fmt.Errorf("页面抓取失败: %w", err)
		}
	})

	if err := collector.Visit(seedURL); err != nil {
		return nil, fmt.Errorf("访问种子页面失败: %w", err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	utils.Debugf("种子页面 %s 发现 %d 个链接", seedURL, len(links))
	return links, nil
}
