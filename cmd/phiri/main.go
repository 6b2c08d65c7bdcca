package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/wudi/phiri/diagnostics"
	"github.com/wudi/phiri/irbuilder"
	"github.com/wudi/phiri/irprint"
	"github.com/wudi/phiri/symtab"
	"github.com/wudi/phiri/version"
)

func main() {
	app := &cli.Command{
		Name:  "phiri",
		Usage: "Builds and prints the SSA IR for a JSON-encoded PHP AST",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input JSON AST file (default: stdin)",
			},
			&cli.StringFlag{
				Name:  "module",
				Usage: "Module name to report in the printed IR header",
				Value: "main",
			},
			&cli.BoolFlag{
				Name:  "diagnostics-only",
				Usage: "Print diagnostics and exit without rendering IR",
			},
		},
		Action: runCompile,
		Commands: []*cli.Command{
			versionCommand,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print the version and exit",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		fmt.Println(version.String())
		return nil
	},
}

func runCompile(ctx context.Context, cmd *cli.Command) error {
	var r io.Reader = os.Stdin
	if path := cmd.String("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	tree, err := decodeAST(r)
	if err != nil {
		return err
	}

	symbols := symtab.New()
	symbols.Init()
	diags := diagnostics.NewEngine()

	builder := irbuilder.New(tree, symbols, diags)
	module := builder.CompileModule(cmd.String("module"), cmd.String("input"))

	if diags.HasErrors() || diags.HasWarnings() {
		fmt.Fprint(os.Stderr, diags.Render())
	}
	if cmd.Bool("diagnostics-only") {
		if diags.HasErrors() {
			os.Exit(1)
		}
		return nil
	}

	fmt.Print(irprint.Print(module))

	if diags.HasErrors() {
		os.Exit(1)
	}
	return nil
}
