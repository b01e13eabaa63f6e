package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"skillsweb/cardgraph/internal/logging"
	"skillsweb/cardgraph/internal/server"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the data directory and accept card and relationship saves over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Get()
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := server.New(server.Options{
			Addr: cfg.Server.Addr,
			Dir:  cfg.DataDir,
			Targets: map[string]string{
				"cards":         cfg.CardsPath(),
				"relationships": cfg.RelationshipsPath(),
			},
			DebugHTML:         cfg.Path(cfg.DebugHTML),
			CardsPath:         cfg.CardsPath(),
			RelationshipsPath: cfg.RelationshipsPath(),
			Logger:            log,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Open your browser to: http://localhost%s/card_manager.html\n", cfg.Server.Addr)
		fmt.Println("Press Ctrl+C to stop.")

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.ListenAndServe(ctx) })
		if serveWatch {
			g.Go(func() error { return runWatcher(ctx) })
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8002)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Also regenerate reports when the snapshots change")
	bindFlag(serveCmd, "server.addr", "addr")
	rootCmd.AddCommand(serveCmd)
}
