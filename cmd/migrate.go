package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rhymednick/inw-radio-log/internal/config"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmdFlags struct {
	FromDriver string
	FromPath   string
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy all collections from another store into the configured store",
	Long: `Copy users, radios, the checkout log and every backup and archive from another store
into the store named in the configuration. Collections with the same name are replaced.`,
	Example: `radiolog migrate --from-driver file --from-path ./data`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if migrateCmdFlags.FromPath == "" {
			return fmt.Errorf("--from-path is required")
		}

		src, err := openStore(config.StoreDriver(migrateCmdFlags.FromDriver), migrateCmdFlags.FromPath)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		dst, err := openStore(cfg.Store.Driver, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer dst.Close() //nolint:errcheck

		copied, err := store.Copy(cmd.Context(), dst, src)
		if err != nil {
			return fmt.Errorf("migration failed after %d collections: %w", copied, err)
		}
		log.Info("Migration completed successfully", "collections", copied, "driver", cfg.Store.Driver, "path", cfg.Store.Path)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateCmdFlags.FromDriver, "from-driver", string(config.StoreDriverFile), "Driver of the source store (file or sqlite)")
	migrateCmd.Flags().StringVar(&migrateCmdFlags.FromPath, "from-path", "", "Directory or database file of the source store")

	rootCmd.AddCommand(migrateCmd)
}
