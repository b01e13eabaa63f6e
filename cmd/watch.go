package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/logging"
	"skillsweb/cardgraph/internal/report"
	"skillsweb/cardgraph/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the tree report, orphan report and debug page when the snapshots change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runWatcher(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatcher(ctx context.Context) error {
	log := logging.Get()
	if err := regenerateReports(); err != nil {
		log.Warn("initial report generation failed", zap.Error(err))
	}

	w, err := watch.New(cfg.DataDir, []string{cfg.CardsFile, cfg.RelationshipsFile}, func(changed []string) {
		log.Info("snapshots changed", zap.Strings("files", changed))
		if err := regenerateReports(); err != nil {
			log.Error("report generation failed", zap.Error(err))
		}
	}, log)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	return w.Run(ctx)
}

// regenerateReports rewrites every derived report from the current snapshots.
// The debug page is written even when the snapshots do not parse, since it
// shows their raw text.
func regenerateReports() error {
	debugErr := report.GenerateDebugHTML(cfg.CardsPath(), cfg.RelationshipsPath(), cfg.Path(cfg.DebugHTML))

	cards, rels, err := loadSnapshots()
	if err != nil {
		return err
	}
	r, err := loadRules()
	if err != nil {
		return err
	}

	view := graph.BuildTreeView(cards, rels, r.ContainerType)
	if err := report.WriteFile(cfg.Path(cfg.TreeReport), func(w io.Writer) error {
		return report.WriteTreeReport(w, view)
	}); err != nil {
		return err
	}

	cls := graph.ClassifyOrphans(cards, graph.BuildHierarchy(rels.Items), r)
	if err := report.WriteFile(cfg.Path(cfg.OrphanReport), func(w io.Writer) error {
		return report.WriteOrphanReport(w, cls, r)
	}); err != nil {
		return err
	}

	logging.Get().Info("reports regenerated",
		zap.Int("cards", cards.Len()), zap.Int("orphans", cls.TotalOrphans), zap.Int("cycles", len(view.Cycles)))
	return debugErr
}
