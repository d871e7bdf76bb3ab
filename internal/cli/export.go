package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailyregister/internal/core"
	"dailyregister/internal/export"
)

var exportFlags dateFlags

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a day or date range to an Excel workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		day, from, to, err := exportFlags.resolve()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		exporter := export.NewExporter(cfg.ExportDir)
		ctx := cmd.Context()

		var path string
		if day != nil {
			txs, err := store.GetByDate(ctx, *day)
			if err != nil {
				return err
			}
			if path, err = exporter.ExportDay(txs, core.Summarize(txs), *day); err != nil {
				return err
			}
		} else {
			txs, err := store.GetByDateRange(ctx, *from, *to)
			if err != nil {
				return err
			}
			if path, err = exporter.ExportRange(txs, core.Summarize(txs), *from, *to); err != nil {
				return err
			}
		}

		fmt.Println(path)
		return nil
	},
}

func init() {
	exportFlags.register(exportCmd)
}
