package downloaders

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newStreamTransport 流式下载专用传输层
// 超时只约束拨号/TLS握手/响应头三个阶段, 不限制响应体传输总时长:
// 数据集归档动辄数GB, 总时长上限会在字节仍在流动时杀死传输
func newStreamTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
	}
}

// idleWatchdog 响应体传输的空闲看门狗
// 返回的context在连续d时间内没有任何读取进展时被取消,
// keepAlive在每次成功读取后调用以重置计时;
// 只要字节还在流动, 传输就不会被打断
func idleWatchdog(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc, func()) {
	if d <= 0 {
		return ctx, func() {}, func() {}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(d, cancel)

	keepAlive := func() {
		timer.Reset(d)
	}
	stop := func() {
		timer.Stop()
		cancel()
	}
	return watchCtx, stop, keepAlive
}
