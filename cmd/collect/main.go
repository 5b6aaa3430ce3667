package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LJTian/ClimateNewsHub/internal/aggregator"
	"github.com/LJTian/ClimateNewsHub/internal/collector"
	"github.com/LJTian/ClimateNewsHub/internal/config"
	"github.com/LJTian/ClimateNewsHub/internal/logger"
	"github.com/spf13/cobra"
)

// 仅执行一次抓取的命令行入口：结果以 JSON 数组输出到 stdout，日志写 stderr
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:          "collect",
		Short:        "Scrape climate news once and print the articles as JSON",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logger.New("climate-news-collect", cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			registry := collector.MustRegistry(collector.DefaultSources)
			agg := aggregator.New(registry, collector.NewPageFetcher(cfg.FetchTimeout, cfg.UserAgent), log, nil)
			return collect(cmd.Context(), agg, registry, source, out)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "only fetch this source (case-insensitive); empty fetches all")
	return cmd
}

// collect 抓取全部或单个源并写出 JSON；未知源返回 ErrSourceNotFound
func collect(ctx context.Context, agg *aggregator.Aggregator, registry *collector.Registry, source string, out io.Writer) error {
	var articles []collector.Article
	if source == "" {
		articles = agg.FetchAll(ctx)
	} else {
		src, err := registry.Find(source)
		if err != nil {
			return err
		}
		articles = agg.FetchFromSource(ctx, src)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
