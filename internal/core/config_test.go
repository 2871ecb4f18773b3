package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if len(cfg.Seeds) != len(DefaultSeeds) {
		t.Errorf("期望内置种子%d个, 实际=%d", len(DefaultSeeds), len(cfg.Seeds))
	}
	if cfg.Acquire.PageTimeout != 20 {
		t.Errorf("期望默认页面超时20, 实际=%d", cfg.Acquire.PageTimeout)
	}
	if cfg.Acquire.ExternalTool != "wget" {
		t.Errorf("期望默认外部工具wget, 实际=%s", cfg.Acquire.ExternalTool)
	}
	if !cfg.Acquire.DriveEnabled {
		t.Error("云盘能力默认应启用")
	}
	if cfg.Output.BaseDir != "downloads" {
		t.Errorf("期望默认输出目录downloads, 实际=%s", cfg.Output.BaseDir)
	}
	if len(cfg.Classify.ArchiveExtensions) == 0 {
		t.Error("分类策略默认扩展名名单不应为空")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应通过验证: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
seeds:
  - "https://mirror.example/datasets.html"
acquire:
  page_timeout: 45
  politeness_delay: 3
output:
  base_dir: /tmp/grab-out
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://mirror.example/datasets.html" {
		t.Errorf("种子不符: %v", cfg.Seeds)
	}
	if cfg.Acquire.PageTimeout != 45 {
		t.Errorf("期望页面超时45, 实际=%d", cfg.Acquire.PageTimeout)
	}
	if cfg.Acquire.PolitenessDelay != 3 {
		t.Errorf("期望延迟3, 实际=%d", cfg.Acquire.PolitenessDelay)
	}
	// 未覆盖的字段保持默认
	if cfg.Acquire.FetchTimeout != 30 {
		t.Errorf("期望下载超时30, 实际=%d", cfg.Acquire.FetchTimeout)
	}
	if cfg.Output.BaseDir != "/tmp/grab-out" {
		t.Errorf("输出目录不符: %s", cfg.Output.BaseDir)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{"默认配置合法", func(*Config) {}, false},
		{"非法种子URL", func(c *Config) { c.Seeds = []string{"ftp://x/"} }, true},
		{"页面超时越界", func(c *Config) { c.Acquire.PageTimeout = 0 }, true},
		{"分块过小", func(c *Config) { c.Acquire.ChunkSize = 16 }, true},
		{"负的磁盘空间要求", func(c *Config) { c.Acquire.MinFreeDiskMB = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			if err != nil {
				t.Fatalf("加载默认配置失败: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if (err != nil) != tt.expectErr {
				t.Errorf("期望err=%v, 实际=%v", tt.expectErr, err)
			}
		})
	}
}

func TestConfigMergeCLIFlags(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	cfg.MergeCLIFlags("./my-out", 5, "debug")
	if cfg.Output.BaseDir != "./my-out" {
		t.Errorf("输出目录未覆盖: %s", cfg.Output.BaseDir)
	}
	if cfg.Acquire.PolitenessDelay != 5 {
		t.Errorf("延迟未覆盖: %d", cfg.Acquire.PolitenessDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("日志级别未覆盖: %s", cfg.Logging.Level)
	}

	// -1表示未指定, 保持原值
	cfg.MergeCLIFlags("", -1, "")
	if cfg.Acquire.PolitenessDelay != 5 {
		t.Errorf("未指定的延迟不应被覆盖: %d", cfg.Acquire.PolitenessDelay)
	}
}
