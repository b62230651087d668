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
	var cfgPath, outDir, ext string
	var quality, workers int
	var lossless bool

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file (JSON)")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&ext, "ext", "", "output format for crops: png|jpg|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality for crops (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode for crops")
	flag.IntVar(&workers, "workers", -1, "parallel workers, 0=all CPUs, -1=config")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: %s [-out crops] [-ext png|jpg|webp] annotations_dir_or_csv...", filepath.Base(os.Args[0]))
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if outDir != "" {
		cfg.Crops.OutputDir = outDir
	}
	if ext != "" {
		cfg.Crops.Format = ext
	}
	if quality > 0 {
		cfg.Crops.Quality = quality
	}
	if lossless {
		cfg.Crops.Lossless = true
	}
	if workers >= 0 {
		cfg.Workers = workers
	}

	tk, err := espiownage.New(cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	sum, err := tk.GenerateCrops(context.Background(), flag.Args(), cfg.Crops.OutputDir)
	if err != nil {
		log.Fatalf("crop generation stopped: %v", err)
	}
	log.Printf("wrote %d crops to %s (%d antinodes outside their image, %d files failed)",
		len(sum.Outputs), cfg.Crops.OutputDir, sum.Skipped, sum.Failed)
}
