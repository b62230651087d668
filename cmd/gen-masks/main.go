package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/drscotthawley/espiownage"
	"github.com/drscotthawley/espiownage/internal/config"
)

func main() {
	var cfgPath, mode, overlap, preview string
	var step float64
	var workers int

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file (JSON)")
	flag.StringVar(&mode, "mode", "", "mask fill: rings|flat (default from config)")
	flag.StringVar(&overlap, "overlap", "", "overlapping ellipses: last|first (default from config)")
	flag.Float64Var(&step, "step", 0, "ring class step, 0=config")
	flag.StringVar(&preview, "preview", "", "directory for contrast-stretched mask previews")
	flag.IntVar(&workers, "workers", -1, "parallel workers, 0=all CPUs, -1=config")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: %s [-mode rings|flat] [-step 0.1] [-preview dir] annotations_dir_or_csv...", filepath.Base(os.Args[0]))
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if mode != "" {
		cfg.Masks.Mode = mode
	}
	if overlap != "" {
		cfg.Masks.Overlap = overlap
	}
	if step > 0 {
		cfg.Rings.Step = step
	}
	if workers >= 0 {
		cfg.Workers = workers
	}

	tk, err := espiownage.New(cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	sum, err := tk.GenerateMasks(context.Background(), flag.Args(), preview)
	if err != nil {
		log.Fatalf("mask generation stopped: %v", err)
	}
	log.Printf("wrote %d masks, %d failed", sum.Processed, sum.Failed)
	log.Printf("mask values used: %v", sum.Values.Sorted())
}
