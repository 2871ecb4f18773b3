package crawlers

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// LinkExtractor 锚点链接提取器
// 职责: 从页面HTML中提取所有<a href>引用,解析为绝对URL并按文档顺序去重
type LinkExtractor struct{}

// NewLinkExtractor 创建链接提取器实例
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractAnchors 从HTML内容提取锚点链接
// 规则:
//   - 仅处理<a>元素的href属性
//   - 排除mailto:和javascript:协议锚点
//   - 相对引用按标准规则相对baseURL解析(绝对引用原样通过)
//   - 仅保留http/https结果
//   - 按文档出现顺序返回,页面内去重
func (e *LinkExtractor) ExtractAnchors(htmlContent []byte, baseURL string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("解析baseURL失败: %w", err)
	}

	var links []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}

				absolute, ok := ResolveHref(base, attr.Val)
				if ok && !seen[absolute] {
					seen[absolute] = true
					links = append(links, absolute)
				}
				break
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return links, nil
}

// ResolveHref 将href解析为相对base的绝对URL
// 返回false表示该href应被排除(mailto/javascript/非http协议/无法解析)
func ResolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	// 排除邮件和脚本协议锚点
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	return resolved.String(), true
}
