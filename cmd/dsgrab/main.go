package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/DsGrab/internal/core"
	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 采集参数
	seedURLs  []string
	seedFile  string
	outputDir string
	dryRun    bool
	direct    bool
	delay     int
)

var rootCmd = &cobra.Command{
	Use:   "dsgrab",
	Short: "数据集发现与下载工具",
	Long: `DsGrab - 弹性多策略数据集采集工具 (Go版本)

从种子页面自动发现数据集下载链接, 识别候选来源类型,
并通过多级下载策略(云盘/外部工具/内置HTTP流)逐级尝试获取:
  • 种子页面锚点发现与启发式候选识别
  • 云盘分享链接文件ID解析与确认页跟随
  • 外部wget断点续传 + 内置流式下载兜底
  • 逐候选结构化结果落盘, 运行结束生成完整报告
  • 自定义HTTP请求头

HTTP头部配置示例:
  # 通过配置文件 (configs/headers.yaml)
  dsgrab -u https://example.com/datasets.html

  # 通过命令行参数
  dsgrab -u https://example.com/datasets.html -H "Authorization: Bearer token"

  # 验证配置文件
  dsgrab --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 信号处理(Ctrl+C优雅退出, 已完成的结果保持有效)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 加载配置并合并命令行参数
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig.MergeCLIFlags(outputDir, delay, logLevel)

		// 创建HTTP头部管理器 (自定义头部在configs/headers.yaml, 与主配置分离)
		headerManager, err := core.NewHeaderManager("", headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证配置...")
			if err := appConfig.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载头部配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("头部验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 收集操作者提供的URL
		userURLs, err := collectUserURLs(seedURLs, seedFile)
		if err != nil {
			return err
		}

		// 验证参数组合
		if err := ValidateFlags(userURLs, direct, delay); err != nil {
			return err
		}

		mode := models.ModeFullRun
		switch {
		case dryRun:
			mode = models.ModeDiscoverOnly
		case direct:
			mode = models.ModeDirectURLs
		}

		// 直连模式的URL作为候选; 其他模式作为种子页面
		var directURLs []string
		if direct {
			directURLs = userURLs
		} else if len(userURLs) > 0 {
			appConfig.Seeds = userURLs
		}

		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("配置非法: %w", err)
		}

		// 执行运行
		orchestrator := core.NewOrchestrator(appConfig, headerManager)
		report, err := orchestrator.Run(ctx, mode, directURLs)
		if err != nil {
			return err
		}

		// 候选级失败不影响进程退出码, 报告里已有完整记录
		utils.Infof("✨ 运行完成! 报告: %s/reports/run_report.json", report.OutputDir)
		return nil
	},
}

// collectUserURLs 合并-u与-f两个来源的URL
func collectUserURLs(urls []string, file string) ([]string, error) {
	collected := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		normalized, err := NormalizeURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("无效的URL %s: %w", rawURL, err)
		}
		collected = append(collected, normalized)
	}

	if file != "" {
		fromFile, err := utils.ReadSeedsFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("读取URL文件失败: %w", err)
		}
		for _, rawURL := range fromFile {
			normalized, err := NormalizeURL(rawURL)
			if err != nil {
				return nil, fmt.Errorf("无效的URL %s: %w", rawURL, err)
			}
			collected = append(collected, normalized)
		}
	}

	return collected, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DsGrab %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 弹性数据集采集工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 采集参数
	rootCmd.Flags().StringSliceVarP(&seedURLs, "url", "u", []string{}, "种子页面URL, 可多次指定 (默认使用内置种子)")
	rootCmd.Flags().StringVarP(&seedFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVarP(&outputDir, "outdir", "o", "", "输出目录 (默认: downloads)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "仅发现与识别候选, 不下载")
	rootCmd.Flags().BoolVar(&direct, "direct", false, "跳过发现阶段, 将提供的URL直接作为下载候选")
	rootCmd.Flags().IntVar(&delay, "delay", -1, "候选之间的礼貌延迟(秒)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
