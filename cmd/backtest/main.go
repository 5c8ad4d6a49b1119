package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Path to the market data file (`parquet` or csv) with time, symbol, open, high, low, close, volume columns",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the backtest engine YAML config. Defaults apply when omitted",
		},
		&cli.StringFlag{
			Name:    "strategy",
			Aliases: []string{"s"},
			Usage:   "Strategy id (see the strategies command)",
		},
		&cli.StringFlag{
			Name:  "params",
			Usage: "Path to a YAML file with strategy parameters",
		},
		&cli.StringSliceFlag{
			Name:  "param",
			Usage: "Strategy parameter override as `key=value`, repeatable",
		},
		&cli.StringFlag{
			Name:    "results",
			Aliases: []string{"o"},
			Usage:   "Directory the results are written to. Nothing is written when empty",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging, including every executed trade",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest rule-based trading strategies over historical bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a single-symbol strategy on one or more symbols",
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:     "symbol",
						Usage:    "Symbol to trade, repeatable. Each symbol is a separate run",
						Required: true,
					},
				),
				Action: runAction,
			},
			{
				Name:  "pair",
				Usage: "Run a multi-symbol strategy on a group of symbols",
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:     "symbols",
						Usage:    "Symbols traded together, in order (e.g. --symbols KO --symbols PEP)",
						Required: true,
					},
				),
				Action: pairAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the engine config, or of a strategy's parameters",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Print the parameter schema of this strategy instead",
					},
				},
				Action: schemaAction,
			},
			{
				Name:  "synth",
				Usage: "Write synthetic bars (one random walk per symbol, or a cointegrated pair) to a parquet or csv file",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "symbols",
						Usage:    "Symbols to generate, repeatable",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, `.parquet` or .csv",
						Value:   "data/synthetic.parquet",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Bars per symbol",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Random seed",
						Value: 42,
					},
					&cli.BoolFlag{
						Name:  "cointegrated",
						Usage: "Generate the first two symbols as a cointegrated pair",
					},
					&cli.FloatFlag{
						Name:  "hedge-ratio",
						Usage: "Hedge ratio of the cointegrated pair",
						Value: 1.0,
					},
				},
				Action: synthAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the available strategies",
				Action: strategiesAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
