package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var initUsersCmdFlags struct {
	Dir string
}

var backupUsersCmd = &cobra.Command{
	Use:   "backup-users",
	Short: "Back up the user registry",
	Long:  `Copy the user registry into a timestamped backup collection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		snap, err := a.maintainer.BackupUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to back up users: %w", err)
		}
		log.Info("Successfully backed up users", "backup", snap.Name, "users", snap.Records)
		return nil
	},
}

var initUsersCmd = &cobra.Command{
	Use:   "init-users",
	Short: "Rebuild the user registry from a directory of photos",
	Long: `Back up the user registry and replace it with one user per image in the import directory.
The user name is derived from the file name, so jane_doe.jpg becomes "Jane Doe".`,
	Example: `radiolog init-users --dir ./headshots`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		snap, count, err := a.maintainer.ReinitializeUsers(cmd.Context(), initUsersCmdFlags.Dir)
		if err != nil {
			return fmt.Errorf("failed to initialize users: %w", err)
		}
		log.Info("Successfully initialized users", "users", count, "backup", snap.Name)
		return nil
	},
}

var archiveLogCmd = &cobra.Command{
	Use:   "archive-log",
	Short: "Archive and clear the checkout log",
	Long:  `Move the checkout log into a timestamped archive and start a new, empty log.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		archived, err := a.maintainer.ArchiveLog(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to archive checkout log: %w", err)
		}
		log.Info("Successfully archived checkout log", "archive", archived.Name, "entries", archived.Entries)
		return nil
	},
}

var initInventoryCmd = &cobra.Command{
	Use:   "init-inventory",
	Short: "Create the default radio inventory",
	Long:  `Create the configured number of radios with the configured default name. Existing radios are left untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		created, err := a.maintainer.InitializeInventory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize inventory: %w", err)
		}
		log.Info("Successfully initialized inventory", "created", created)
		return nil
	},
}

var compactPhotosCmd = &cobra.Command{
	Use:   "compact-photos",
	Short: "Re-encode oversized profile photos",
	Long:  `Re-encode every stored profile photo larger than the configured compact threshold.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		n, err := a.maintainer.CompactPhotos(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("Successfully compacted photos", "count", n)
		return nil
	},
}

func init() {
	initUsersCmd.Flags().StringVar(&initUsersCmdFlags.Dir, "dir", "", "Directory of photos to import (default: maintenance.import_dir)")

	rootCmd.AddCommand(backupUsersCmd, initUsersCmd, archiveLogCmd, initInventoryCmd, compactPhotosCmd)
}
