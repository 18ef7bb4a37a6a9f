// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	. "github.com/bytecore/bytecore"
	"github.com/logrusorgru/aurora"
	"gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Path to a directory containing block sample data",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "Preset network parameters: main, stage or test",
		Value: "main",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML file overriding the preset network parameters",
	}
	fileFlag = cli.StringFlag{
		Name:  "file",
		Usage: "History file of JSON lines, optionally lz4 compressed",
	}
	heightFlag = cli.Int64Flag{
		Name:  "height",
		Usage: "Block height (defaults to the next block)",
		Value: -1,
	}
	startHeightFlag = cli.Int64Flag{
		Name:  "start_height",
		Usage: "First block height",
	}
	endHeightFlag = cli.Int64Flag{
		Name:  "end_height",
		Usage: "Last block height (defaults to the tip)",
		Value: -1,
	}
	compressFlag = cli.BoolFlag{
		Name:  "compress",
		Usage: "Compress exported history with lz4",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "Log rejections and storage activity at debug level",
	}
)

// A small tool to inspect consensus parameters and evaluate them against stored history offline
func main() {
	app := cli.NewApp()
	app.Name = "inspector"
	app.Usage = "inspect consensus parameters and evaluate them against block history"
	app.Commands = []cli.Command{
		{
			Name:   "params",
			Usage:  "Print network parameters as TOML",
			Flags:  []cli.Flag{networkFlag, configFlag},
			Action: paramsCmd,
		},
		{
			Name:   "validate",
			Usage:  "Check network parameters against every invariant",
			Flags:  []cli.Flag{networkFlag, configFlag},
			Action: validateCmd,
		},
		{
			Name:   "import",
			Usage:  "Import block history into the sample store",
			Flags:  []cli.Flag{dataDirFlag, fileFlag, debugFlag},
			Action: importCmd,
		},
		{
			Name:   "export",
			Usage:  "Export block history from the sample store",
			Flags:  []cli.Flag{dataDirFlag, fileFlag, startHeightFlag, endHeightFlag, compressFlag, debugFlag},
			Action: exportCmd,
		},
		{
			Name:   "evaluate",
			Usage:  "Show what the block at a height must satisfy",
			Flags:  []cli.Flag{dataDirFlag, networkFlag, configFlag, heightFlag, debugFlag},
			Action: evaluateCmd,
		},
		{
			Name:   "verify",
			Usage:  "Re-evaluate stored blocks and report the first rejection",
			Flags:  []cli.Flag{dataDirFlag, networkFlag, configFlag, startHeightFlag, endHeightFlag, debugFlag},
			Action: verifyCmd,
		},
		{
			Name:      "address",
			Usage:     "Encode a hex body under a prefix, or decode an address",
			ArgsUsage: "<address> | <prefix> <hex body>",
			Action:    addressCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadParams(ctx *cli.Context) (*ParameterSet, error) {
	base, err := ParametersByName(ctx.String(networkFlag.Name))
	if err != nil {
		return nil, err
	}
	if config := ctx.String(configFlag.Name); len(config) != 0 {
		return LoadParameters(config, base)
	}
	return base, base.Validate()
}

func newLogger(ctx *cli.Context) Logger {
	logger := NewLogrus()
	if ctx.Bool(debugFlag.Name) {
		logger.SetToDebug()
	}
	return logger
}

func openStore(ctx *cli.Context, readOnly bool) (*SampleStorageDisk, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if len(dataDir) == 0 {
		return nil, fmt.Errorf("You must specify a -%s", dataDirFlag.Name)
	}
	if !readOnly {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, err
		}
	}
	return NewSampleStorageDisk(filepath.Join(dataDir, "samples.db"), readOnly, newLogger(ctx))
}

func paramsCmd(ctx *cli.Context) error {
	params, err := loadParams(ctx)
	if err != nil {
		return err
	}
	return DumpParameters(os.Stdout, params)
}

func validateCmd(ctx *cli.Context) error {
	params, err := loadParams(ctx)
	if err != nil {
		if cfgErr, ok := IsConfigError(err); ok {
			log.Fatalf("%s: %s\n", aurora.Bold(aurora.Red("FAILURE")), cfgErr)
		}
		return err
	}
	log.Printf("%s: %s, history depth %d\n",
		aurora.Bold(aurora.Green("SUCCESS")),
		params,
		aurora.Bold(params.HistoryDepth()))
	return nil
}

func importCmd(ctx *cli.Context) error {
	file := ctx.String(fileFlag.Name)
	if len(file) == 0 {
		return fmt.Errorf("You must specify a -%s", fileFlag.Name)
	}
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := ImportSamples(f)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	store, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.StoreAll(samples); err != nil {
		return err
	}
	log.Printf("Imported %d samples\n", aurora.Bold(len(samples)))
	return nil
}

func exportCmd(ctx *cli.Context) error {
	store, err := openStore(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	start, end, err := heightRange(ctx, store)
	if err != nil {
		return err
	}
	samples, err := store.GetRange(start, end+1)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if file := ctx.String(fileFlag.Name); len(file) != 0 {
		f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return ExportSamples(w, samples, ctx.Bool(compressFlag.Name))
}

func evaluateCmd(ctx *cli.Context) error {
	params, err := loadParams(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	height := ctx.Int64(heightFlag.Name)
	if height < 0 {
		tip, err := store.GetTip()
		if err != nil {
			return err
		}
		height = 0
		if tip != nil {
			height = tip.Height + 1
		}
	}

	history, err := HistoryFor(store, params, height)
	if err != nil {
		return err
	}

	validator := NewValidator(params, newLogger(ctx))
	verdict, err := validator.EvaluateHeight(height, history, CheckpointsFor(params))
	if err != nil {
		return err
	}
	displayVerdict(params, verdict)
	return nil
}

func verifyCmd(ctx *cli.Context) error {
	params, err := loadParams(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	start, end, err := heightRange(ctx, store)
	if err != nil {
		return err
	}
	if start == 0 {
		// genesis has no history to check against
		start = 1
	}

	validator := NewValidator(params, newLogger(ctx))
	cache, err := NewEvaluationCache(validator, CheckpointsFor(params), 1024)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	var count int64
	for height := start; height <= end; height++ {
		// the block itself plus the full history before it
		history, err := LastSamples(store, height+1, params.HistoryDepth()+1)
		if err != nil {
			return err
		}
		if len(history) < 2 || history[len(history)-1].Height != height {
			return fmt.Errorf("Missing block at height %d", height)
		}
		sample, parent := history[len(history)-1], history[len(history)-2]
		candidate, err := CandidateFromSample(sample, &parent)
		if err != nil {
			return err
		}

		verdict, err := cache.Evaluate(candidate, history[:len(history)-1], now)
		if err != nil {
			return err
		}
		if verdict.Rejection != nil {
			log.Fatalf("%s: %s\n", aurora.Bold(aurora.Red("FAILURE")), verdict.Rejection)
		}
		count++
	}

	log.Printf("%s: Verified %d blocks from height %d to %d\n",
		aurora.Bold(aurora.Green("SUCCESS")),
		aurora.Bold(count),
		aurora.Bold(start),
		aurora.Bold(end))
	return nil
}

func addressCmd(ctx *cli.Context) error {
	switch ctx.NArg() {
	case 1:
		prefix, body, err := DecodeAddress(ctx.Args().Get(0))
		if err != nil {
			return err
		}
		fmt.Printf("Prefix: %d\n", aurora.Bold(prefix))
		fmt.Printf("Body:   %s\n", hex.EncodeToString(body))
	case 2:
		var prefix uint64
		if _, err := fmt.Sscanf(ctx.Args().Get(0), "%d", &prefix); err != nil {
			return fmt.Errorf("Invalid prefix: %w", err)
		}
		body, err := hex.DecodeString(ctx.Args().Get(1))
		if err != nil {
			return err
		}
		fmt.Println(aurora.Bold(EncodeAddress(prefix, body)))
	default:
		return fmt.Errorf("Usage: address %s", ctx.Command.ArgsUsage)
	}
	return nil
}

func heightRange(ctx *cli.Context, store SampleStorage) (int64, int64, error) {
	start, end := ctx.Int64(startHeightFlag.Name), ctx.Int64(endHeightFlag.Name)
	if end < 0 {
		tip, err := store.GetTip()
		if err != nil {
			return 0, 0, err
		}
		if tip == nil {
			return 0, 0, fmt.Errorf("No samples stored")
		}
		end = tip.Height
	}
	if start < 0 || start > end {
		return 0, 0, fmt.Errorf("Invalid height range %d to %d", start, end)
	}
	return start, end, nil
}

func displayVerdict(params *ParameterSet, verdict Verdict) {
	fmt.Printf("   Height: %d\n", aurora.Bold(verdict.Height))
	fmt.Printf("      Era: %s (major version %d)\n",
		aurora.Bold(verdict.Era), verdict.Upgrade.ActiveMajorVersion)
	fmt.Printf("  Upgrade: %s", aurora.Bold(verdict.Upgrade.State))
	if verdict.Upgrade.NextVersion != 0 {
		fmt.Printf(", version %d has %d/%d votes",
			verdict.Upgrade.NextVersion,
			verdict.Upgrade.VoteCount,
			params.UpgradeVotesRequired())
	}
	if verdict.Upgrade.ActivationHeight != 0 {
		fmt.Printf(", activation at %d", verdict.Upgrade.ActivationHeight)
	}
	fmt.Println()
	fmt.Printf("  Min difficulty: %d\n", aurora.Bold(verdict.Difficulty.RequiredDifficulty))
	fmt.Printf("  Max size: %d\n", aurora.Bold(verdict.SizeLimit.EffectiveMaxSize))
	if verdict.SizeLimit.EffectiveMedian != 0 {
		fmt.Printf("  Size median: %d\n", verdict.SizeLimit.EffectiveMedian)
	}
	if verdict.Rejection != nil {
		fmt.Printf("  %s: %s\n", aurora.Bold(aurora.Red("REJECTED")), verdict.Rejection)
	}
}
