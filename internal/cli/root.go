// Package cli wires the register's commands: the HTTP server, report
// printing, workbook export and backup management.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dailyregister/internal/config"
	"dailyregister/internal/core"
	"dailyregister/internal/log"
	"dailyregister/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "register",
	Short: "Daily transaction register for a jewellery shop",
	Long: `register keeps a jewellery shop's daily sales ledger: transactions
with sold and exchange lines, an item-code catalog, daily summaries and
Excel exports, all in a single local sqlite file with timestamped
backups.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, summaryCmd, exportCmd, backupCmd, versionCmd)
}

// setup loads the optional .env file, reads and validates configuration
// and installs the default logger.
func setup() (*config.Config, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.SetDefault(log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	}))
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	return store, nil
}

// dateFlags is the --date / --from / --to triple shared by the report
// and export commands.
type dateFlags struct {
	date string
	from string
	to   string
}

func (f *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "single day (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&f.to, "to", "", "range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.from, "from", "", "range start (YYYY-MM-DD)")
}

// resolve returns either a single day or a from/to pair. With no flags
// at all it resolves to today.
func (f *dateFlags) resolve() (day *core.Date, from, to *core.Date, err error) {
	if f.from != "" || f.to != "" {
		if f.date != "" {
			return nil, nil, nil, fmt.Errorf("--date cannot be combined with --from/--to")
		}
		if f.from == "" || f.to == "" {
			return nil, nil, nil, fmt.Errorf("--from and --to must be given together")
		}
		fromDate, err := core.ParseDate(f.from)
		if err != nil {
			return nil, nil, nil, err
		}
		toDate, err := core.ParseDate(f.to)
		if err != nil {
			return nil, nil, nil, err
		}
		return nil, &fromDate, &toDate, nil
	}

	d := core.DateOf(time.Now())
	if strings.TrimSpace(f.date) != "" {
		if d, err = core.ParseDate(f.date); err != nil {
			return nil, nil, nil, err
		}
	}
	return &d, nil, nil, nil
}
