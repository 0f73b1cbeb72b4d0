package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fieldops",
	Short: "Field service back office: records, duplicate detection, document numbering",
	Long:  "Manages leads, contacts and accounts with fuzzy duplicate detection, and issues sequential quote, work order and invoice numbers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
