package cli

import (
	"fmt"

	"github.com/ppiankov/indxflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the model reply cache",
	Long: `Manage the model reply cache. Replies are kept in memory for cache.ttl and,
when cache.dir is set, on disk so later runs can reuse them.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached model reply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.Dir == "" {
			fmt.Println("No disk cache configured (cache.dir), nothing to clear")
			return nil
		}

		p := pipeline.NewPipeline(cfg, newLogger())
		defer func() { _ = p.Close() }()

		if err := p.ClearModelCache(); err != nil {
			return err
		}
		fmt.Printf("✓ Cleared model cache in %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
