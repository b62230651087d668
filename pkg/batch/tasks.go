package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/drscotthawley/espiownage/internal/utils"
	"github.com/drscotthawley/espiownage/pkg/coco"
	"github.com/drscotthawley/espiownage/pkg/crop"
	"github.com/drscotthawley/espiownage/pkg/imageio"
	"github.com/drscotthawley/espiownage/pkg/mask"
	"github.com/drscotthawley/espiownage/pkg/record"
	"github.com/drscotthawley/espiownage/pkg/synth"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// MaskTask rasterizes each record into a grayscale mask next to it. When
// previewDir is set a contrast-stretched copy is also written there.
func MaskTask(b mask.Builder, suffix, previewDir string) func(context.Context, record.Pair) Result {
	return func(_ context.Context, p record.Pair) Result {
		res := Result{Source: p.Record}
		anns, err := record.ReadFile(p.Record)
		if err != nil {
			res.Err = err
			return res
		}
		w, h, err := imageio.Size(p.Image)
		if err != nil {
			res.Err = err
			return res
		}
		m, values, err := b.Build(w, h, anns)
		if err != nil {
			res.Err = err
			return res
		}

		out := record.MaskPath(p.Record, suffix)
		if err := imageio.Save(m, out, types.EncodeOptions{Format: "png"}); err != nil {
			res.Err = err
			return res
		}
		res.Outputs = append(res.Outputs, out)

		if previewDir != "" {
			preview := filepath.Join(previewDir, filepath.Base(out))
			if err := imageio.Save(mask.Colorize(m), preview, types.EncodeOptions{Format: "png"}); err != nil {
				res.Err = err
				return res
			}
			res.Outputs = append(res.Outputs, preview)
		}
		res.Values = values
		return res
	}
}

// CropTask writes one crop per antinode into outDir.
func CropTask(c *crop.Cropper, outDir string) func(context.Context, record.Pair) Result {
	return func(_ context.Context, p record.Pair) Result {
		res := Result{Source: p.Record}
		anns, err := record.ReadFile(p.Record)
		if err != nil {
			res.Err = err
			return res
		}
		img, err := imageio.Load(p.Image)
		if err != nil {
			res.Err = err
			return res
		}
		crops, skipped := c.Crops(img, anns)
		paths, err := c.Save(outDir, utils.Stem(p.Image), crops)
		res.Outputs, res.Skipped, res.Err = paths, skipped, err
		return res
	}
}

// FrameTask reads a record and its image size for COCO export.
func FrameTask() func(context.Context, record.Pair) Result {
	return func(_ context.Context, p record.Pair) Result {
		res := Result{Source: p.Record}
		anns, err := record.ReadFile(p.Record)
		if err != nil {
			res.Err = err
			return res
		}
		w, h, err := imageio.Size(p.Image)
		if err != nil {
			res.Err = err
			return res
		}
		res.Frame = &coco.Frame{
			FileName:    filepath.Base(p.Image),
			Width:       w,
			Height:      h,
			Annotations: anns,
		}
		return res
	}
}

// SynthTask renders and stores one synthetic frame per frame number.
func SynthTask(g *synth.Generator, outDir string) func(context.Context, int) Result {
	return func(_ context.Context, n int) Result {
		res := Result{Source: fmt.Sprintf("frame %d", n)}
		f, err := g.Generate(n)
		if err != nil {
			res.Err = err
			return res
		}
		imgPath, recPath, err := f.Write(outDir)
		if err != nil {
			res.Err = err
			return res
		}
		res.Outputs = []string{imgPath, recPath}
		return res
	}
}

// GrabPlan says which copy of a record is the most recent.
type GrabPlan struct {
	Name   string
	Source string
	Later  bool // the source is not in the first directory
}

// PlanGrabRecent picks, for every record in dirs[0], the most recently
// modified file with the same name across all dirs.
func PlanGrabRecent(dirs []string) ([]GrabPlan, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories given")
	}
	names, err := utils.ListFilesWithExt(dirs[0], "csv")
	if err != nil {
		return nil, err
	}

	plans := make([]GrabPlan, 0, len(names))
	for _, first := range names {
		name := filepath.Base(first)
		candidates := make([]string, len(dirs))
		for i, d := range dirs {
			candidates[i] = filepath.Join(d, name)
		}
		src, idx, ok := utils.MostRecent(candidates)
		if !ok {
			return nil, fmt.Errorf("%w: record %s", record.ErrMissingAsset, first)
		}
		plans = append(plans, GrabPlan{Name: name, Source: src, Later: idx > 0})
	}
	return plans, nil
}

// GrabTask copies a planned record into dest.
func GrabTask(dest string) func(context.Context, GrabPlan) Result {
	return func(_ context.Context, p GrabPlan) Result {
		out := filepath.Join(dest, p.Name)
		res := Result{Source: p.Source}
		if err := utils.CopyFile(p.Source, out); err != nil {
			res.Err = err
			return res
		}
		res.Outputs = []string{out}
		return res
	}
}

// LaterCount counts plans sourced from a later directory.
func LaterCount(plans []GrabPlan) int {
	n := 0
	for _, p := range plans {
		if p.Later {
			n++
		}
	}
	return n
}
