package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepub/cmd/sitepub/commands"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Exit))
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string, stdout, stderr io.Writer, exit func(int)) int {
	cli := &commands.CLI{}
	global := &commands.Global{Stdout: stdout, Stderr: stderr}
	defer func() { _ = global.Close() }()

	parser, err := kong.New(cli,
		kong.Name("sitepub"),
		kong.Description("Publish a static site to its primary or mirror host, rewriting cross-site links."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
	)
	if err != nil {
		return foundationerrors.NewCLIErrorAdapter(false, nil).Report(stderr,
			foundationerrors.InternalError("invalid command definition").WithCause(err).Build())
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	adapter := foundationerrors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
	return adapter.Report(stderr, ctx.Run(global, cli))
}
