package commands

import (
	"log/slog"

	"socmint/internal/components/telemetry"
	"socmint/internal/server"
	"socmint/lib/serviceutil"

	"github.com/spf13/cobra"
)

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "The port to listen on.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Serves profile lookups over HTTP until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Telemetry.Enabled() {
			telemetry.InstrumentPerfStats(ctx, a.tel)
		}

		srv := server.NewServer(a.engine, a.tel)
		slog.Info("serving profiles", "port", servePort, "workers", a.cfg.Fanout.MaxWorkers)
		return serviceutil.StartHttpServer(ctx, servePort, srv.Handler())
	},
}
