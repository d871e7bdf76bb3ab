package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dailyregister/internal/backup"
	"dailyregister/internal/catalog"
	"dailyregister/internal/config"
	"dailyregister/internal/storage"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage database snapshots",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the database into the backup directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, store, manager, err := backupSetup()
		if err != nil {
			return err
		}
		defer store.Close()

		b, err := manager.Create(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(b.Path)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, store, manager, err := backupSetup()
		if err != nil {
			return err
		}
		defer store.Close()

		backups, err := manager.List()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("no backups")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "Name\tCreated\tSize")
		for _, b := range backups {
			fmt.Fprintf(w, "%s\t%s\t%d\n", b.Name, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size)
		}
		return w.Flush()
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore a snapshot over the live database",
	Long: `Restore replaces the live database with the named snapshot. The
current state is itself snapshotted first, so the restore can be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, manager, err := backupSetup()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := manager.Restore(cmd.Context(), args[0]); err != nil {
			return err
		}
		// refresh the catalog from the restored file
		if _, err := catalog.New(cmd.Context(), store); err != nil {
			return err
		}
		fmt.Println("restored", args[0])
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)
}

func backupSetup() (*config.Config, *storage.Store, *backup.Manager, error) {
	cfg, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, backup.NewManager(store.Path(), cfg.BackupDir, store), nil
}
