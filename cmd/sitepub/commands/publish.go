package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitepub/internal/publish"
)

// PublishCmd implements the default 'publish' command.
type PublishCmd struct {
	TargetFlags `embed:""`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := p.LoadConfig(g, root)
	if err != nil {
		return err
	}
	rec, flush := p.NewRecorder()

	fmt.Fprintf(g.Stdout, "Publishing %s in %s mode\n", cfg.Source, cfg.Mode)
	report, err := publish.New(cfg, publish.WithRecorder(rec), publish.WithLogger(g.Logger)).Run(context.Background())
	flushMetrics(g, p.MetricsFile, flush)
	if err != nil {
		return err
	}
	report.Summary(g.Stdout)
	return nil
}
