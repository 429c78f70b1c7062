package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitepub/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "initialization failed").
			WithContext("file", root.Config).
			Build()
	}
	fmt.Fprintln(g.Stdout, "initialized successfully")
	return nil
}
