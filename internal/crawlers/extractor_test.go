package crawlers

import (
	"net/url"
	"reflect"
	"testing"
)

func TestExtractAnchors(t *testing.T) {
	extractor := NewLinkExtractor()

	t.Run("相对与绝对引用混合", func(t *testing.T) {
		page := []byte(`<html><body>
			<a href="data/real.zip">数据</a>
			<a href="/root.tar.gz">根路径</a>
			<a href="https://other.example/abs.zip">绝对</a>
			<a href="mailto:me@x.com">邮件</a>
			<a href="javascript:void(0)">脚本</a>
		</body></html>`)

		links, err := extractor.ExtractAnchors(page, "https://host.example/datasets/index.html")
		if err != nil {
			t.Fatalf("提取失败: %v", err)
		}

		expected := []string{
			"https://host.example/datasets/data/real.zip",
			"https://host.example/root.tar.gz",
			"https://other.example/abs.zip",
		}
		if !reflect.DeepEqual(links, expected) {
			t.Errorf("期望=%v, 实际=%v", expected, links)
		}
	})

	t.Run("页面内去重保持文档顺序", func(t *testing.T) {
		page := []byte(`<html><body>
			<a href="b.zip">1</a>
			<a href="a.zip">2</a>
			<a href="b.zip">3</a>
		</body></html>`)

		links, err := extractor.ExtractAnchors(page, "https://host.example/")
		if err != nil {
			t.Fatalf("提取失败: %v", err)
		}

		expected := []string{
			"https://host.example/b.zip",
			"https://host.example/a.zip",
		}
		if !reflect.DeepEqual(links, expected) {
			t.Errorf("期望=%v, 实际=%v", expected, links)
		}
	})

	t.Run("无锚点页面返回空序列", func(t *testing.T) {
		links, err := extractor.ExtractAnchors([]byte("<html><body><p>没有链接</p></body></html>"), "https://host.example/")
		if err != nil {
			t.Fatalf("提取失败: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("期望空序列, 实际=%v", links)
		}
	})

	t.Run("残缺HTML也能提取", func(t *testing.T) {
		// html.Parse对残缺输入有容错,不应报错
		links, err := extractor.ExtractAnchors([]byte(`<a href="x.zip">未闭合`), "https://host.example/")
		if err != nil {
			t.Fatalf("提取失败: %v", err)
		}
		if len(links) != 1 || links[0] != "https://host.example/x.zip" {
			t.Errorf("期望单个链接, 实际=%v", links)
		}
	})
}

func TestResolveHref(t *testing.T) {
	base, _ := url.Parse("https://host.example/dir/page.html")

	tests := []struct {
		name     string
		href     string
		expected string
		ok       bool
	}{
		{"相对路径继承scheme和host", "sub/file.zip", "https://host.example/dir/sub/file.zip", true},
		{"根相对路径", "/top.zip", "https://host.example/top.zip", true},
		{"绝对URL原样通过", "http://mirror.example/m.zip", "http://mirror.example/m.zip", true},
		{"协议相对URL", "//cdn.example/c.zip", "https://cdn.example/c.zip", true},
		{"mailto排除", "mailto:me@x.com", "", false},
		{"javascript排除", "javascript:alert(1)", "", false},
		{"大小写混合的mailto排除", "MailTo:me@x.com", "", false},
		{"ftp协议排除", "ftp://files.example/f.zip", "", false},
		{"空href排除", "", "", false},
		{"首尾空白被裁剪", "  trimmed.zip  ", "https://host.example/dir/trimmed.zip", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveHref(base, tt.href)
			if ok != tt.ok {
				t.Fatalf("期望ok=%v, 实际=%v", tt.ok, ok)
			}
			if got != tt.expected {
				t.Errorf("期望=%s, 实际=%s", tt.expected, got)
			}
		})
	}
}

func TestLinkSet(t *testing.T) {
	set := NewLinkSet()

	if !set.MarkSeen("https://a.example/x.zip") {
		t.Error("首次标记应返回true")
	}
	if set.MarkSeen("https://a.example/x.zip") {
		t.Error("重复标记应返回false")
	}
	if !set.IsSeen("https://a.example/x.zip") {
		t.Error("已标记URL应为seen")
	}
	if set.IsSeen("https://a.example/other.zip") {
		t.Error("未标记URL不应为seen")
	}
	if set.Count() != 1 {
		t.Errorf("期望集合大小=1, 实际=%d", set.Count())
	}

	set.Reset()
	if set.Count() != 0 {
		t.Errorf("Reset后期望大小=0, 实际=%d", set.Count())
	}
}
