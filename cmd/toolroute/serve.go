package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/catalog"
	"github.com/ShayCichocki/toolroute/internal/server"
	"github.com/ShayCichocki/toolroute/internal/version"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the HTTP API:

  GET  /health     liveness and version
  GET  /providers  catalog listing
  POST /choices    {"task": "..."} -> choice data
  POST /run        {"task": "...", "choices": {...}} -> {"id", "content"}
  GET  /metrics    Prometheus metrics

Requests never prompt: sets that need a pick and are not covered by
"choices" contribute no tools. With catalog.watch enabled the catalog file
is reloaded when it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{orchestrator: true})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		if a.cfg.Catalog.Watch {
			w, err := catalog.NewWatcher(a.catalog, a.cfg.Catalog.Path, a.logger)
			if err != nil {
				a.logger.Warn("catalog watch disabled", zap.Error(err))
			} else {
				w.OnReload(func(err error) {
					if err == nil {
						a.logger.Info("catalog reloaded", zap.Int("providers", a.catalog.Len()))
					}
				})
				go w.Run(ctx)
			}
		}

		if !a.cfg.Logging.Development {
			gin.SetMode(gin.ReleaseMode)
		}

		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(a.orch, a.catalog, server.Config{
			Addr:     addr,
			Gatherer: a.registry,
			Version:  version.Get(),
		}, a.logger)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
