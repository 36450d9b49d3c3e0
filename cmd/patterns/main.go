package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/patterns"
	"github.com/bodgit/patterns/pat"
	"github.com/bodgit/patterns/pattern"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const defaultDB = "patterns.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func withCatalog(fn func(*cli.Context, *patterns.Catalog) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		catalog, err := patterns.New(c.String("db"), newLogger(c))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer catalog.Close()

		if err := fn(c, catalog); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
}

func printPattern(i int, p *pattern.Pattern) {
	b := p.Bounds()
	fmt.Printf("%d: \"%s\" (%s) %s %dx%d at %d,%d\n", i, p.Name, p.ID, p.Mode, b.Dx(), b.Dy(), p.Point.Horizontal, p.Point.Vertical)
	for j := range p.Data.Channels {
		a := &p.Data.Channels[j]
		if a.State() != pattern.Populated {
			fmt.Printf("\tchannel %d: %s\n", j, a.State())
			continue
		}
		fmt.Printf("\tchannel %d: depth %d, pixel depth %d, compression %d, %d bytes\n", j, a.Channel.Depth, a.Channel.PixelDepth, a.Channel.Compression, len(a.Channel.Data))
	}
}

func createPattern(c *cli.Context) error {
	mode, err := pattern.ParseColorMode(c.String("mode"))
	if err != nil {
		return err
	}

	in, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer in.Close()

	m, _, err := image.Decode(in)
	if err != nil {
		return err
	}

	name := c.String("name")
	if name == "" {
		file := filepath.Base(c.Args().Get(0))
		name = file[:len(file)-len(filepath.Ext(file))]
	}

	p, err := pattern.FromImage(name, c.String("id"), m, mode)
	if err != nil {
		return err
	}

	b, err := pat.New(*p).MarshalBinary()
	if err != nil {
		return err
	}

	return os.WriteFile(c.Args().Get(1), b, 0644)
}

func main() {
	app := cli.NewApp()

	app.Name = "patterns"
	app.Usage = "Pattern file and catalog utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PATTERNS_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "import",
			Usage:       "Import patterns into the catalog",
			Description: "Each file is either a pattern file or a raw list of pattern records.",
			ArgsUsage:   "FILE...",
			Action: withCatalog(func(c *cli.Context, catalog *patterns.Catalog) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				for _, file := range c.Args().Slice() {
					if _, err := catalog.ImportFile(file); err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
				}

				return nil
			}),
		},
		{
			Name:        "scan",
			Usage:       "Scan filesystem and import every pattern file",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: withCatalog(func(c *cli.Context, catalog *patterns.Catalog) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return catalog.Scan(c.Args().First())
			}),
		},
		{
			Name:  "list",
			Usage: "List the patterns in the catalog",
			Action: withCatalog(func(c *cli.Context, catalog *patterns.Catalog) error {
				entries, err := catalog.Entries()
				if err != nil {
					return err
				}

				for _, e := range entries {
					fmt.Printf("%s\t%s\t%dx%d\t%s\n", e.ID, e.Mode, e.Width, e.Height, e.Name)
				}

				return nil
			}),
		},
		{
			Name:        "export",
			Usage:       "Export patterns from the catalog to a pattern file",
			Description: "With no identifiers every pattern in the catalog is exported.",
			ArgsUsage:   "FILE [ID...]",
			Action: withCatalog(func(c *cli.Context, catalog *patterns.Catalog) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return catalog.ExportFile(c.Args().First(), c.Args().Tail()...)
			}),
		},
		{
			Name:      "info",
			Usage:     "Describe the patterns in a file",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				l, err := patterns.ReadFile(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for i := range l {
					printPattern(i, &l[i])
				}

				return nil
			},
		},
		{
			Name:      "create",
			Usage:     "Create a pattern file from an image",
			ArgsUsage: "IMAGE FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "mode",
					Value: pattern.RGB.String(),
					Usage: "color mode, one of grayscale, rgb or indexed",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "pattern name, defaults to the image filename",
				},
				&cli.StringFlag{
					Name:  "id",
					Usage: "pattern identifier",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 || c.String("id") == "" {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := createPattern(c); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
