// Command translator assembles a source.asm file into a JSON machine
// image. Argument parsing only: every real decision (lexing, two-pass
// assembly, encoding) lives in the asm/isa packages.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/jscheid/vnmachine/asm"
	"github.com/jscheid/vnmachine/config"
	"github.com/jscheid/vnmachine/isa"
)

func main() {
	app := cli.NewApp()
	app.Name = "translator"
	app.Usage = "assemble a .asm source file into a JSON machine image"
	app.ArgsUsage = "<source.asm> <out.bin>"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log the resolved image size on success",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		cli.ShowAppHelp(c)
		return cli.NewExitError("expected exactly 2 arguments: <source.asm> <out.bin>", 1)
	}
	sourcePath := c.Args().Get(0)
	outPath := c.Args().Get(1)

	logger, closeLog := openLogger()
	defer closeLog()

	source, err := os.ReadFile(sourcePath) // #nosec G304 -- CLI-supplied path
	if err != nil {
		logger.Printf("reading %s: %v", sourcePath, err)
		return cli.NewExitError(fmt.Sprintf("cannot read %s: %v", sourcePath, err), 1)
	}

	img, err := asm.Assemble(string(source))
	if err != nil {
		logger.Printf("assembling %s: %v", sourcePath, err)
		return cli.NewExitError(fmt.Sprintf("assembly failed: %v", err), 1)
	}

	encoded, err := isa.Encode(img)
	if err != nil {
		logger.Printf("encoding image for %s: %v", sourcePath, err)
		return cli.NewExitError(fmt.Sprintf("encode failed: %v", err), 1)
	}

	if err := os.WriteFile(outPath, encoded, 0600); err != nil {
		logger.Printf("writing %s: %v", outPath, err)
		return cli.NewExitError(fmt.Sprintf("cannot write %s: %v", outPath, err), 1)
	}

	if c.Bool("verbose") {
		logger.Printf("assembled %s -> %s (%d words)", sourcePath, outPath, len(img))
	}
	return nil
}

// openLogger opens logs/translator.log under the config log directory,
// falling back to stderr if the log directory can't be created, since a
// failure to log should never be the reason translation itself fails.
func openLogger() (*log.Logger, func()) {
	path := filepath.Join(config.GetLogPath(), "translator.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- fixed, config-derived path
	if err != nil {
		return log.New(os.Stderr, "translator: ", log.LstdFlags), func() {}
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }
}
