package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"matisse/internal/config"
	"matisse/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "matisse",
	Short: "Matisse - AI drawing stylization service",
	Long: `Matisse turns user drawings into stylized AI-generated images.
It describes the drawing with a multimodal model, renders the description
with an image-generation model, and optionally persists the result to
object storage.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.matisse")
	}

	// 环境变量设置
	viper.SetEnvPrefix("MATISSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.max_image_bytes", 4<<20)

	// Vision（多模态描述模型）
	viper.SetDefault("vision.provider", "ark")
	viper.SetDefault("vision.options.temperature", 0.7)
	viper.SetDefault("vision.options.max_tokens", 512)
	viper.SetDefault("vision.options.top_p", 1.0)

	// ImageGen（图片生成）
	viper.SetDefault("imagegen.provider", "ark")
	viper.SetDefault("imagegen.size", "1024x1024")
	viper.SetDefault("imagegen.watermark", false)

	// Gateway（远程函数委托）
	viper.SetDefault("gateway.timeout", "60s")
	viper.SetDefault("gateway.retry_count", 1)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// Cache
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("cache.result_ttl", "30m")

	// MongoDB
	viper.SetDefault("mongo.database", "matisse")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
