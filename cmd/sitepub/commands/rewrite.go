package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitepub/internal/publish"
)

// RewriteCmd implements the 'rewrite' command. It flips the links of an
// existing output tree without copying anything.
type RewriteCmd struct {
	TargetFlags `embed:""`
}

func (r *RewriteCmd) Run(g *Global, root *CLI) error {
	cfg, err := r.LoadConfig(g, root)
	if err != nil {
		return err
	}
	rec, flush := r.NewRecorder()

	fmt.Fprintf(g.Stdout, "Rewriting %s in %s mode\n", cfg.OutputPath(), cfg.Mode)
	report, err := publish.New(cfg, publish.WithRecorder(rec), publish.WithLogger(g.Logger)).RewriteOnly(context.Background())
	flushMetrics(g, r.MetricsFile, flush)
	if err != nil {
		return err
	}
	report.Summary(g.Stdout)
	return nil
}
