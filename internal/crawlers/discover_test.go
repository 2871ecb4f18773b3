package crawlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestPageDiscovererDiscover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.html":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>
				<a href="https://host.example/data/real.zip">数据集</a>
				<a href="mailto:me@x.com">联系</a>
				<a href="relative/part2.zip">第二部分</a>
			</body></html>`)
		case "/empty.html":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>no links</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	discoverer := NewPageDiscoverer(5, nil)

	t.Run("提取解析并排除mailto", func(t *testing.T) {
		links, err := discoverer.Discover(server.URL + "/index.html")
		if err != nil {
			t.Fatalf("发现失败: %v", err)
		}

		expected := []string{
			"https://host.example/data/real.zip",
			server.URL + "/relative/part2.zip",
		}
		if !reflect.DeepEqual(links, expected) {
			t.Errorf("期望=%v, 实际=%v", expected, links)
		}
	})

	t.Run("无链接页面返回空序列", func(t *testing.T) {
		links, err := discoverer.Discover(server.URL + "/empty.html")
		if err != nil {
			t.Fatalf("发现失败: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("期望空序列, 实际=%v", links)
		}
	})

	t.Run("非成功状态以error返回", func(t *testing.T) {
		if _, err := discoverer.Discover(server.URL + "/missing.html"); err == nil {
			t.Error("404页面应返回错误")
		}
	})

	t.Run("无法连接以error返回", func(t *testing.T) {
		if _, err := discoverer.Discover("http://127.0.0.1:1/page.html"); err == nil {
			t.Error("连接失败应返回错误")
		}
	})

	t.Run("非法种子URL以error返回", func(t *testing.T) {
		if _, err := discoverer.Discover("ftp://bad.example/"); err == nil {
			t.Error("非HTTP协议应返回错误")
		}
	})
}

// fakeHeaderProvider 测试用头部提供者
type fakeHeaderProvider struct {
	headers http.Header
}

func (f *fakeHeaderProvider) GetHeaders() (http.Header, error) {
	return f.headers, nil
}

func TestPageDiscovererAppliesHeaders(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="a.zip">a</a></body></html>`)
	}))
	defer server.Close()

	provider := &fakeHeaderProvider{headers: http.Header{
		"User-Agent": []string{"dsgrab-test/1.0"},
	}}

	discoverer := NewPageDiscoverer(5, provider)
	if _, err := discoverer.Discover(server.URL + "/"); err != nil {
		t.Fatalf("发现失败: %v", err)
	}

	if gotUA != "dsgrab-test/1.0" {
		t.Errorf("期望User-Agent=dsgrab-test/1.0, 实际=%s", gotUA)
	}
}
