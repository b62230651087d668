// Package espiownage prepares training data from hand-labeled ESPI
// (electronic speckle pattern interferometry) images of steelpan drums.
//
// Each image comes with a record of antinode ellipses, one row per antinode:
//
//	cx,cy,a,b,angle,rings
//
// The Toolkit turns a directory of image/record pairs into segmentation
// masks, per-antinode crops, or a COCO-style bounding-box dataset, and can
// synthesize fake annotated frames.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/drscotthawley/espiownage"
//	)
//
//	func main() {
//		tk, err := espiownage.NewDefault()
//		if err != nil {
//			log.Fatal(err)
//		}
//		sum, err := tk.GenerateMasks(context.Background(), []string{"data/annotations"}, "")
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("mask values: %v", sum.Values.Sorted())
//	}
//
// The geometry lives in pkg/ellipse, record I/O in pkg/record and the
// per-output builders in pkg/mask, pkg/crop, pkg/coco and pkg/synth.
package espiownage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/drscotthawley/espiownage/internal/config"
	"github.com/drscotthawley/espiownage/internal/utils"
	"github.com/drscotthawley/espiownage/pkg/batch"
	"github.com/drscotthawley/espiownage/pkg/coco"
	"github.com/drscotthawley/espiownage/pkg/crop"
	"github.com/drscotthawley/espiownage/pkg/editor"
	"github.com/drscotthawley/espiownage/pkg/record"
	"github.com/drscotthawley/espiownage/pkg/synth"
)

// Version of the espiownage tools
const Version = "0.2.0"

// Toolkit runs the dataset tools with one configuration
type Toolkit struct {
	cfg    *config.Config
	runner *batch.Runner
	logger *log.Logger
}

// New creates a Toolkit. A nil logger means log.Default().
func New(cfg *config.Config, logger *log.Logger) (*Toolkit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Toolkit{
		cfg:    cfg,
		runner: batch.New(cfg.Workers, logger),
		logger: logger,
	}, nil
}

// NewDefault creates a Toolkit from defaults, the user config file and the
// environment.
func NewDefault() (*Toolkit, error) {
	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		return nil, err
	}
	return New(cfg, nil)
}

// Config returns the active configuration
func (tk *Toolkit) Config() *config.Config {
	return tk.cfg
}

// Pairs resolves record files and directories into record/image pairs.
// Missing assets are logged and left out; it only fails when nothing is left.
func (tk *Toolkit) Pairs(args []string) ([]record.Pair, error) {
	pairs, err := record.PairFiles(args, tk.cfg.Image.Ext)
	if err != nil {
		if !errors.Is(err, record.ErrMissingAsset) || len(pairs) == 0 {
			return nil, err
		}
		tk.logger.Printf("skipping: %v", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no annotation records found in %v", args)
	}
	return pairs, nil
}

// GenerateMasks writes a segmentation mask beside every record. When
// previewDir is set, contrast-stretched copies are written there too.
func (tk *Toolkit) GenerateMasks(ctx context.Context, args []string, previewDir string) (batch.Summary, error) {
	pairs, err := tk.Pairs(args)
	if err != nil {
		return batch.Summary{}, err
	}
	builder, err := tk.cfg.MaskBuilder()
	if err != nil {
		return batch.Summary{}, err
	}
	if previewDir != "" {
		if err := utils.EnsureDir(previewDir); err != nil {
			return batch.Summary{}, err
		}
	}
	return batch.Run(ctx, tk.runner, pairs, batch.MaskTask(builder, tk.cfg.Masks.Suffix, previewDir))
}

// GenerateCrops cuts one image per antinode into outDir.
func (tk *Toolkit) GenerateCrops(ctx context.Context, args []string, outDir string) (batch.Summary, error) {
	pairs, err := tk.Pairs(args)
	if err != nil {
		return batch.Summary{}, err
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return batch.Summary{}, err
	}
	c := crop.NewWithOptions(tk.cfg.EncodeOptions())
	return batch.Run(ctx, tk.runner, pairs, batch.CropTask(c, outDir))
}

// ExportBoxes builds a COCO dataset from the records and writes it to
// outPath. Regression mode uses a single class and keeps raw ring counts.
func (tk *Toolkit) ExportBoxes(ctx context.Context, args []string, outPath string, regression bool) (coco.Dataset, batch.Summary, error) {
	pairs, err := tk.Pairs(args)
	if err != nil {
		return coco.Dataset{}, batch.Summary{}, err
	}
	sum, err := batch.Run(ctx, tk.runner, pairs, batch.FrameTask())
	if err != nil {
		return coco.Dataset{}, sum, err
	}

	q, err := tk.cfg.Quantizer()
	if err != nil {
		return coco.Dataset{}, sum, err
	}
	exp := coco.Exporter{Quantizer: q, Regression: regression, MaxRings: tk.cfg.Rings.Max}
	ds, skipped := exp.Build(sum.Frames)
	sum.Skipped += skipped
	if err := ds.WriteFile(outPath); err != nil {
		return ds, sum, err
	}
	return ds, sum, nil
}

// GenerateFake renders count synthetic frames numbered from start into outDir.
func (tk *Toolkit) GenerateFake(ctx context.Context, outDir string, start, count int) (batch.Summary, error) {
	sc, err := tk.cfg.SynthSettings()
	if err != nil {
		return batch.Summary{}, err
	}
	if err := synth.PrepareDirs(outDir); err != nil {
		return batch.Summary{}, err
	}
	frames := make([]int, count)
	for i := range frames {
		frames[i] = start + i
	}
	return batch.Run(ctx, tk.runner, frames, batch.SynthTask(synth.New(sc), outDir))
}

// GrabRecent copies the newest version of every record in dirs[0], looked up
// across all dirs, into dest. It returns how many came from a later directory.
func (tk *Toolkit) GrabRecent(ctx context.Context, dirs []string, dest string) (int, batch.Summary, error) {
	plans, err := batch.PlanGrabRecent(dirs)
	if err != nil {
		return 0, batch.Summary{}, err
	}
	if err := utils.EnsureDir(dest); err != nil {
		return 0, batch.Summary{}, err
	}
	sum, err := batch.Run(ctx, tk.runner, plans, batch.GrabTask(dest))
	return batch.LaterCount(plans), sum, err
}

// Edit opens an editing session over the given records.
func (tk *Toolkit) Edit(args []string) (*editor.Session, error) {
	pairs, err := tk.Pairs(args)
	if err != nil {
		return nil, err
	}
	return editor.NewSession(pairs)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
