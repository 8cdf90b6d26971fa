package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	flagSources  string
	flagOutput   string
	flagWorkers  int
	flagNoImages bool
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发或交给系统 cron
var rootCmd = &cobra.Command{
	Use:          "collect",
	Short:        "Fetch all sources once and write the news JSON file",
	SilenceUsage: true,
	RunE:         runCollect,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources [category]",
	Short: "List configured categories and sources",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry(flagSources)
		if err != nil {
			return err
		}
		var only string
		if len(args) == 1 {
			only = args[0]
		}
		return listSources(cmd.OutOrStdout(), reg, only)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSources, "sources", "", "path to sources.yaml (default: $XDG_CONFIG_HOME/newsdigest/sources.yaml, then built-in)")
	rootCmd.Flags().StringVar(&flagOutput, "output", "", "output JSON path (overrides OUTPUT_PATH)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "fetch worker pool size (overrides WORKERS)")
	rootCmd.Flags().BoolVar(&flagNoImages, "no-images", false, "skip cover image resolution")

	rootCmd.AddCommand(sourcesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if flagSources != "" {
		cfg.SourcesFile = flagSources
	}
	if flagOutput != "" {
		cfg.OutputPath = flagOutput
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}

	reg, err := config.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return err
	}

	deps, err := pipeline.Setup(cfg, reg, !flagNoImages)
	if err != nil {
		return err
	}
	defer deps.Close()

	// 只执行一轮采集任务后退出
	snap, err := deps.Pipeline.Run(context.Background())
	if err != nil {
		return err
	}
	for _, key := range reg.CategoryKeys() {
		log.Printf("%s: %d items", key, len(snap[key]))
	}
	return nil
}

// listSources only 非空时只列出该分类
func listSources(w io.Writer, reg *config.Registry, only string) error {
	cats := reg.Categories
	if only != "" {
		cat, ok := reg.Category(only)
		if !ok {
			return fmt.Errorf("unknown category %q (known: %v)", only, reg.CategoryKeys())
		}
		cats = []config.Category{cat}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cat := range cats {
		fmt.Fprintf(tw, "%s\t%s\tlimit=%d\n", cat.Key, cat.Name, cat.Limit)
		for _, src := range reg.SourcesFor(cat.Key) {
			target := src.URL
			if src.Kind == config.KindStatic {
				target = fmt.Sprintf("%d items", len(src.Items))
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", src.Name, src.Kind, target)
		}
	}
	return tw.Flush()
}
