package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"OxyGent-Console/internal/config"
	"OxyGent-Console/internal/storage/mysql"
	"OxyGent-Console/pkg/logger"
)

var defaultConfigPath = filepath.Join("configs", "oxygent.yaml")

// main 是 OxyGent 管理控制台守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "oxygentd 运行失败: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("OXYGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "oxygentd",
		Short:         "OxyGent 管理控制台",
		Long:          "oxygentd 提供智能体、工具、工作流与 MAS 实例的管理 API。",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if err := initLogger(cfg); err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().String("config", "", "配置文件路径 (默认 configs/oxygent.yaml)")
	root.Flags().String("addr", "", "管理 API 监听地址，覆盖 server.address")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("addr", root.Flags().Lookup("addr"))

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "对 MySQL 存储执行数据库迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "mysql" {
				return fmt.Errorf("当前存储驱动为 %s，无需迁移", cfg.Storage.Driver)
			}
			db, err := mysql.Open(cmd.Context(), mysqlConfig(cfg))
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "输出运行版本",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Runtime.Version)
			return nil
		},
	})
	return root
}

// loadConfig 依次从 --config、OXYGENT_CONFIG 与默认路径解析配置。默认路径不存在时使用默认值。
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := strings.TrimSpace(v.GetString("config"))
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	var cfg *config.Config
	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		cfg = config.Default(".")
	} else {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if addr := strings.TrimSpace(v.GetString("addr")); addr != "" {
		cfg.Server.Address = addr
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Log.Audit.Enabled,
			Path:       cfg.Log.Audit.Path,
			MaxSizeMB:  cfg.Log.Audit.MaxSizeMB,
			MaxBackups: cfg.Log.Audit.MaxBackups,
			MaxAgeDays: cfg.Log.Audit.MaxAgeDays,
		},
	})
}
