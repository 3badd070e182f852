// Command train fits a HybridNeuMF model on a CSV dataset and writes the JSON
// artifact the server loads.
//
//	train -data interactions.csv -out hybrid_glasses_model.json -epochs 10
//
// The item table size defaults to the largest item id in the data plus one; pass
// -num-items to reserve room for catalog items that have no interactions yet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/train"
)

func main() {
	def := train.DefaultConfig()
	hpDef := model.DefaultHyperparameters()

	var (
		dataPath  = flag.String("data", "", "training CSV (required)")
		outPath   = flag.String("out", "hybrid_glasses_model.json", "artifact output path")
		numItems  = flag.Int("num-items", 0, "item table size; 0 infers it from the data")
		factors   = flag.Int("factors", hpDef.FactorNum, "embedding width")
		layers    = flag.String("mlp-layers", joinInts(hpDef.MLPLayers), "comma separated MLP widths")
		epochs    = flag.Int("epochs", def.Epochs, "passes over the data")
		batchSize = flag.Int("batch-size", def.BatchSize, "mini-batch size")
		lr        = flag.Float64("lr", def.LearningRate, "Adam learning rate")
		dropout   = flag.Float64("dropout", def.Dropout, "dropout after the first MLP layer")
		seed      = flag.Uint64("seed", def.Seed, "seed for init, shuffling and dropout")
		logLevel  = flag.String("log-level", "info", "log level")
		logFormat = flag.String("log-format", "console", "log format: console or json")
	)
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Level = *logLevel
	logCfg.Format = *logFormat
	logging.Init(logCfg)

	if *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	mlp, err := parseInts(*layers)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid -mlp-layers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := def
	cfg.Epochs = *epochs
	cfg.BatchSize = *batchSize
	cfg.LearningRate = *lr
	cfg.Dropout = *dropout
	cfg.Seed = *seed

	hp := hpDef
	hp.NumItems = *numItems
	hp.FactorNum = *factors
	hp.MLPLayers = mlp

	if err := run(ctx, *dataPath, *outPath, hp, cfg); err != nil {
		logging.Fatal().Err(err).Msg("training failed")
	}
}

func run(ctx context.Context, dataPath, outPath string, hp model.Hyperparameters, cfg train.Config) error {
	log := logging.WithComponent("train")

	ds, err := train.LoadCSV(dataPath)
	if err != nil {
		return err
	}
	if hp.NumItems <= 0 {
		hp.NumItems = ds.MaxItemID() + 1
	}
	log.Info().Int("samples", ds.Len()).Int("num_items", hp.NumItems).Ints("mlp_layers", hp.MLPLayers).Msg("dataset loaded")

	m, err := model.NewHybridNeuMF(hp)
	if err != nil {
		return err
	}
	m.RandomInit(cfg.Seed)

	tr, err := train.New(m, cfg)
	if err != nil {
		return err
	}
	start := time.Now()
	stats, err := tr.Fit(ctx, ds)
	if err != nil {
		return err
	}

	if err := model.SaveArtifact(outPath, m); err != nil {
		return err
	}
	log.Info().
		Str("path", outPath).
		Float64("final_loss", stats[len(stats)-1].Loss).
		Dur("took", time.Since(start)).
		Msg("artifact written")
	return nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
