package main

import (
	"context"
	"flag"
	"log"

	"github.com/drscotthawley/espiownage"
	"github.com/drscotthawley/espiownage/internal/config"
)

func main() {
	var cfgPath, outDir, realDir string
	var count, start, workers int
	var seed int64

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file (JSON)")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&realDir, "real", "", "directory of real images for band-pass mixup")
	flag.IntVar(&count, "n", 0, "number of frames, 0=config")
	flag.IntVar(&start, "start", 0, "first frame number")
	flag.Int64Var(&seed, "seed", 0, "base random seed, 0=config")
	flag.IntVar(&workers, "workers", -1, "parallel workers, 0=all CPUs, -1=config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if outDir != "" {
		cfg.Synth.OutputDir = outDir
	}
	if realDir != "" {
		cfg.Synth.RealImageDir = realDir
	}
	if count > 0 {
		cfg.Synth.Count = count
	}
	if seed != 0 {
		cfg.Synth.Seed = seed
	}
	if workers >= 0 {
		cfg.Workers = workers
	}

	tk, err := espiownage.New(cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("generating %d frames into %s", cfg.Synth.Count, cfg.Synth.OutputDir)
	sum, err := tk.GenerateFake(context.Background(), cfg.Synth.OutputDir, start, cfg.Synth.Count)
	if err != nil {
		log.Fatalf("generation stopped: %v", err)
	}
	log.Printf("wrote %d frames, %d failed", sum.Processed, sum.Failed)
}
