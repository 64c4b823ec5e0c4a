package cli

import (
	"fmt"

	"github.com/lacquerai/minijs/internal/server"
	"github.com/lacquerai/minijs/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start an HTTP server that runs programs over a REST API.

The server provides:
- POST /api/v1/run and /api/v1/parse for one-off programs
- Named sessions whose context is kept in a SQLite store
- A websocket REPL per session at /api/v1/sessions/{name}/ws
- Prometheus metrics at /metrics

Examples:
  minijs serve                              # localhost:8080, sessions in ~/.minijs
  minijs serve --port 9090 --host 0.0.0.0   # Custom host and port
  minijs serve --store :memory:             # Sessions are lost on exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := server.DefaultConfig()
			config.Host = viper.GetString("server.host")
			config.Port = viper.GetInt("server.port")
			config.EnableMetrics = viper.GetBool("server.metrics")
			config.StorePath = viper.GetString("store.path")
			if size := viper.GetInt("server.cache-size"); size > 0 {
				config.CacheSize = size
			}
			if cors, err := cmd.Flags().GetBool("cors"); err == nil {
				config.EnableCORS = cors
			}

			if err := ensureStoreDir(config.StorePath); err != nil {
				return err
			}

			srv, err := server.New(config)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			w := cmd.OutOrStdout()
			if !viper.GetBool("quiet") {
				style.Success(w, fmt.Sprintf("minijs server starting at http://%s", srv.GetAddr()))
				fmt.Fprintf(w, "  API:      http://%s/api/v1/run\n", srv.GetAddr())
				fmt.Fprintf(w, "  Sessions: %s\n", style.FormatFilePath(config.StorePath))
				if config.EnableMetrics {
					fmt.Fprintf(w, "  Metrics:  http://%s/metrics\n", srv.GetAddr())
				}
				style.Info(w, "Press Ctrl+C to stop")
			}

			return srv.StartWithGracefulShutdown()
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "server port")
	cmd.Flags().String("host", "localhost", "server host")
	cmd.Flags().Bool("metrics", true, "enable Prometheus metrics endpoint")
	cmd.Flags().Bool("cors", true, "enable CORS headers")
	cmd.Flags().String("store", "", "session store database (default $HOME/.minijs/sessions.db)")
	cmd.Flags().Int("cache-size", 0, "number of parsed programs to keep")

	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.metrics", cmd.Flags().Lookup("metrics"))
	_ = viper.BindPFlag("server.cache-size", cmd.Flags().Lookup("cache-size"))
	_ = viper.BindPFlag("store.path", cmd.Flags().Lookup("store"))

	return cmd
}
