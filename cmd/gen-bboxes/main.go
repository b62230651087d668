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
	var cfgPath, out string
	var step float64
	var regression bool
	var workers int

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file (JSON)")
	flag.StringVar(&out, "out", "bboxes.json", "output COCO JSON file")
	flag.Float64Var(&step, "step", 0, "ring class step, 0=config")
	flag.BoolVar(&regression, "reg", false, "single 'rings' class for ring-count regression")
	flag.IntVar(&workers, "workers", -1, "parallel workers, 0=all CPUs, -1=config")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: %s [-out bboxes.json] [-step 0.1] [-reg] annotations_dir_or_csv...", filepath.Base(os.Args[0]))
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
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
	ds, sum, err := tk.ExportBoxes(context.Background(), flag.Args(), out, regression)
	if err != nil {
		log.Fatalf("bbox export stopped: %v", err)
	}
	log.Printf("wrote %s: %d images, %d boxes, %d categories (%d degenerate boxes skipped)",
		out, len(ds.Images), len(ds.Annotations), len(ds.Categories), sum.Skipped)
}
