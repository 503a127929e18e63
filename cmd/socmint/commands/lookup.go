package commands

import (
	"os"

	"socmint/internal/aggregator"

	"github.com/spf13/cobra"
)

var (
	lookupLimit      int
	lookupSequential bool
	lookupNoCache    bool
	lookupTable      bool
	lookupDumpDir    string
)

func init() {
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 0, "Cap on every friends/followers/following list, 0 uses the configured limit and -1 lists everything.")
	lookupCmd.Flags().BoolVar(&lookupSequential, "sequential", false, "Run the sub-lookups one after another.")
	lookupCmd.Flags().BoolVar(&lookupNoCache, "no-cache", false, "Ignore a cached record, the fresh one is still cached.")
	lookupCmd.Flags().BoolVar(&lookupTable, "table", false, "Print a table instead of JSON.")
	lookupCmd.Flags().StringVar(&lookupDumpDir, "dump-http", "", "Write every http exchange to a file in this directory.")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <username or id>",
	Short: "Aggregates the public profile of an account and prints it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{
			sequential: lookupSequential,
			dumpDir:    lookupDumpDir,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.engine.Aggregate(cmd.Context(), args[0], aggregator.Options{
			Limit:    lookupLimit,
			UseCache: !lookupNoCache,
		})
		if err != nil {
			writeJSON(os.Stdout, aggregator.ErrorDocument(err))
			a.Close()
			os.Exit(1)
		}

		if lookupTable {
			recordTable(os.Stdout, rec).Render()
			return nil
		}
		return writeJSON(os.Stdout, rec)
	},
}
