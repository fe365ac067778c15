package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bodgit/ghosttag"
	"github.com/bodgit/ghosttag/config"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var (
	seedFlag = &cli.Int64Flag{
		Name:    "seed",
		Aliases: []string{"s"},
		EnvVars: []string{"GHOSTTAG_SEED"},
		Value:   ghosttag.DefaultSeed,
		Usage:   "placement seed",
	}
	passphraseFlag = &cli.StringFlag{
		Name:    "passphrase",
		Aliases: []string{"p"},
		EnvVars: []string{"GHOSTTAG_PASSPHRASE"},
		Usage:   "derive the placement seed from a passphrase",
	}
	redundancyFlag = &cli.IntFlag{
		Name:    "redundancy",
		Aliases: []string{"r"},
		EnvVars: []string{"GHOSTTAG_REDUNDANCY"},
		Value:   ghosttag.DefaultRedundancy,
		Usage:   "percentage of each block devoted to error correction",
	}
	alphaFlag = &cli.BoolFlag{
		Name:  "alpha",
		Usage: "also use the alpha channel",
	}
)

func settings(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()

	path := c.String("config")
	if c.IsSet("config") || config.Exists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("redundancy") {
		cfg.Redundancy = c.Int("redundancy")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("passphrase") {
		cfg.Seed = ghosttag.SeedFromPassphrase(c.String("passphrase"))
	}
	if c.IsSet("alpha") {
		cfg.Alpha = c.Bool("alpha")
	}
	if c.IsSet("compress") {
		cfg.Compress = c.Bool("compress")
	}
	if c.IsSet("ledger") {
		cfg.Ledger = c.String("ledger")
	}

	return cfg, nil
}

func newGhostTag(c *cli.Context) (*ghosttag.GhostTag, func(), error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	cfg, err := settings(c)
	if err != nil {
		return nil, nil, err
	}

	gt, err := ghosttag.New(cfg.Redundancy, cfg.Seed, logger)
	if err != nil {
		return nil, nil, err
	}
	gt.SetAlpha(cfg.Alpha)
	gt.SetCompression(cfg.Compress)

	closer := func() {}
	if cfg.Ledger != "" {
		l, err := ghosttag.NewLedger(cfg.Ledger)
		if err != nil {
			return nil, nil, err
		}
		gt.SetLedger(l)
		closer = func() { l.Close() }
	}

	return gt, closer, nil
}

func message(c *cli.Context) ([]byte, error) {
	switch {
	case c.IsSet("message"):
		return []byte(c.String("message")), nil
	case c.IsSet("file"):
		return os.ReadFile(c.String("file"))
	default:
		return io.ReadAll(os.Stdin)
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "ghosttag"
	app.Usage = "Hide messages in lossless images"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"GHOSTTAG_CONFIG"},
			Value:   config.DefaultConfigPath(),
			Usage:   "path to configuration file",
		},
		&cli.StringFlag{
			Name:    "ledger",
			EnvVars: []string{"GHOSTTAG_LEDGER"},
			Usage:   "path to ledger database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "embed",
			Usage:     "Hide a message in an image",
			ArgsUsage: "IMAGE",
			Flags: []cli.Flag{
				seedFlag,
				passphraseFlag,
				redundancyFlag,
				alphaFlag,
				&cli.BoolFlag{
					Name:  "compress",
					Usage: "compress the message first",
				},
				&cli.StringFlag{
					Name:    "message",
					Aliases: []string{"m"},
					Usage:   "message to hide",
				},
				&cli.StringFlag{
					Name:    "file",
					Aliases: []string{"f"},
					Usage:   "read the message from a file instead",
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "output image, made lossless if it isn't already",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				gt, closer, err := newGhostTag(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				msg, err := message(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				dst, err := gt.EmbedFile(c.Args().First(), c.String("output"), msg)
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println(dst)

				return nil
			},
		},
		{
			Name:      "extract",
			Usage:     "Recover a message from an image",
			ArgsUsage: "IMAGE",
			Flags: []cli.Flag{
				seedFlag,
				passphraseFlag,
				alphaFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				gt, closer, err := newGhostTag(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				msg, err := gt.ExtractFile(c.Args().First())
				if err != nil {
					var e *ghosttag.ExtractError
					if errors.As(err, &e) {
						return cli.Exit(fmt.Sprintf("%s: %v", e.Reason, e.Err), 1)
					}
					return cli.Exit(err, 1)
				}

				fmt.Printf("%s\n", msg)

				return nil
			},
		},
		{
			Name:      "inspect",
			Usage:     "Show the header of a hidden message",
			ArgsUsage: "IMAGE",
			Flags: []cli.Flag{
				alphaFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				gt, closer, err := newGhostTag(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				h, err := gt.InspectFile(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println(h)

				return nil
			},
		},
		{
			Name:      "capacity",
			Usage:     "Show the longest message an image can hold",
			ArgsUsage: "IMAGE",
			Flags: []cli.Flag{
				redundancyFlag,
				alphaFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				gt, closer, err := newGhostTag(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				n, err := gt.CapacityFile(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println(n)

				return nil
			},
		},
		{
			Name:      "scan",
			Usage:     "Look for messages in every image in a directory",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				seedFlag,
				passphraseFlag,
				alphaFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				gt, closer, err := newGhostTag(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				found, err := gt.Scan(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, f := range found {
					fmt.Printf("%s: %s\n", f.Path, f.Message)
				}

				return nil
			},
		},
		{
			Name:  "history",
			Usage: "List images recorded in the ledger",
			Action: func(c *cli.Context) error {
				cfg, err := settings(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				if cfg.Ledger == "" {
					return cli.Exit("no ledger configured", 1)
				}

				l, err := ghosttag.NewLedger(cfg.Ledger)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer l.Close()

				entries, err := l.List()
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, e := range entries {
					fmt.Printf("%s %s %s %dx%dx%d redundancy=%d%% length=%d\n", e.ID, e.Created.Format("2006-01-02 15:04:05"), e.Path, e.Width, e.Height, e.Channels, e.Redundancy, e.Length)
				}

				return nil
			},
		},
		{
			Name:  "config",
			Usage: "Save the given settings as the defaults",
			Flags: []cli.Flag{
				seedFlag,
				passphraseFlag,
				redundancyFlag,
				alphaFlag,
				&cli.BoolFlag{
					Name:  "compress",
					Usage: "compress messages first",
				},
			},
			Action: func(c *cli.Context) error {
				cfg, err := settings(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if cfg.Redundancy < 0 || cfg.Redundancy > ghosttag.MaxRedundancy {
					return cli.Exit(fmt.Errorf("%w: %d", ghosttag.ErrInvalidRedundancy, cfg.Redundancy), 1)
				}

				if err := config.SaveConfig(cfg, c.String("config")); err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println(c.String("config"))

				return nil
			},
		},
		{
			Name:      "plane",
			Usage:     "Render the least significant bits of an image",
			ArgsUsage: "IMAGE OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				gt, closer, err := newGhostTag(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				dst, err := gt.PlaneFile(c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println(dst)

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
