package core

import (
	"net/http"

	"github.com/RecoveryAshes/DsGrab/internal/config"
	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
)

// DefaultUserAgent 内置桌面UA, 不带UA的请求在不少数据集站点直接吃403
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) dsgrab/1.0"

// HeaderManager 为发现爬取和流式下载提供同一份HTTP请求头,
// 按 内置默认 < headers.yaml < --header 的优先级合并
// 实现 models.HeaderProvider
type HeaderManager struct {
	loader    *config.HeaderConfigLoader
	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	defaults http.Header
	file     http.Header // LoadConfig之前为nil
	cli      http.Header
}

// NewHeaderManager 创建头部管理器
// cliHeaders为 --header 传入的 "Name: Value" 字符串, 格式错误立即报错,
// 配置文件留到首次使用时再加载
func NewHeaderManager(headerFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	return &HeaderManager{
		loader:    config.NewHeaderConfigLoader(headerFile),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
		defaults: http.Header{
			"User-Agent":      {DefaultUserAgent},
			"Accept":          {"*/*"},
			"Accept-Encoding": {"gzip, deflate, br"},
		},
		cli: cli,
	}, nil
}

// LoadConfig 加载headers.yaml层, 重复调用只加载一次
func (hm *HeaderManager) LoadConfig() error {
	if hm.file != nil {
		return nil
	}

	headerConfig, err := hm.loader.Load()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		return err
	}

	hm.file = make(http.Header)
	for name, value := range headerConfig.Headers {
		hm.file.Set(name, value)
	}

	if len(headerConfig.Headers) > 0 {
		utils.Debugf("已加载%d个配置头部: %v", len(headerConfig.Headers), hm.redactor.Redact(hm.file))
	}
	return nil
}

// Validate 逐层验证头部合法性, 任何一层不合法即失败
func (hm *HeaderManager) Validate() error {
	for _, layer := range []http.Header{hm.defaults, hm.file, hm.cli} {
		if err := hm.validator.Validate(layer); err != nil {
			return err
		}
	}
	return nil
}

// mergedHeaders 按优先级合并三层头部, 高优先级整键覆盖
func (hm *HeaderManager) mergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.file, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的合并头部, 仅用于日志与--validate-config输出
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.mergedHeaders())
}

// GetHeaders 实现 models.HeaderProvider: 加载→验证→合并
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	return hm.mergedHeaders(), nil
}
