package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/drscotthawley/espiownage/pkg/coco"
	"github.com/drscotthawley/espiownage/pkg/crop"
	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/imageio"
	"github.com/drscotthawley/espiownage/pkg/mask"
	"github.com/drscotthawley/espiownage/pkg/record"
	"github.com/drscotthawley/espiownage/pkg/synth"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// createTestPair writes a 100x80 image and its record into dir.
func createTestPair(t *testing.T, dir, stem, rows string) record.Pair {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 100, 80))
	imgPath := filepath.Join(dir, stem+".png")
	require.NoError(t, imageio.Save(img, imgPath, types.EncodeOptions{Format: "png"}))
	recPath := filepath.Join(dir, stem+".csv")
	require.NoError(t, os.WriteFile(recPath, []byte(rows), 0o644))
	return record.Pair{Record: recPath, Image: imgPath}
}

func testRunner(buf *bytes.Buffer, workers int) *Runner {
	return New(workers, log.New(buf, "", 0))
}

func testBuilder(t *testing.T) mask.Builder {
	q, err := ellipse.NewQuantizer(0.5)
	require.NoError(t, err)
	return mask.Builder{Quantizer: q, Mode: mask.FillRings, Overlap: mask.LastWins, FlatValue: 1}
}

func TestMaskTaskUnionsValues(t *testing.T) {
	dir := t.TempDir()
	pairs := []record.Pair{
		createTestPair(t, dir, "a", "50,40,20,10,0,2\n"),
		createTestPair(t, dir, "b", "30,30,10,10,0,5\n0,0,0,0,0,0\n"),
	}
	preview := t.TempDir()

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 2), pairs, MaskTask(testBuilder(t), "_P", preview))
	require.NoError(t, err)
	require.Equal(t, 2, sum.Processed)
	require.Equal(t, 0, sum.Failed)
	require.Equal(t, []int{0, 4, 10}, sum.Values.Sorted())
	require.Len(t, sum.Outputs, 4)

	m, err := imageio.LoadGray(filepath.Join(dir, "a_P.png"))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 80), m.Bounds())
	require.Equal(t, uint8(4), m.GrayAt(50, 40).Y)
	require.FileExists(t, filepath.Join(preview, "b_P.png"))
}

func TestRunContinuesPastParseErrors(t *testing.T) {
	dir := t.TempDir()
	pairs := []record.Pair{
		createTestPair(t, dir, "bad", "x,1,2\n"),
		createTestPair(t, dir, "good", "50,40,20,10,0,2\n"),
	}

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 1), pairs, MaskTask(testBuilder(t), "_P", ""))
	require.NoError(t, err)
	require.Equal(t, 1, sum.Processed)
	require.Equal(t, 1, sum.Failed)

	var perr *ellipse.ParseError
	require.True(t, errors.As(sum.Errors[0], &perr))
	require.Contains(t, buf.String(), "bad.csv")
}

func TestRunContinuesPastNonFiniteCells(t *testing.T) {
	dir := t.TempDir()
	pairs := []record.Pair{
		createTestPair(t, dir, "nan", "50,40,20,10,0,nan\n"),
		createTestPair(t, dir, "good", "50,40,20,10,0,2\n"),
	}

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 1), pairs, MaskTask(testBuilder(t), "_P", ""))
	require.NoError(t, err)
	require.Equal(t, 1, sum.Processed)
	require.Equal(t, 1, sum.Failed)
	require.False(t, Fatal(sum.Errors[0]))
}

func TestRunStopsOnValidationError(t *testing.T) {
	dir := t.TempDir()
	pairs := []record.Pair{
		createTestPair(t, dir, "a", "50,40,20,10,0,12\n"),
		createTestPair(t, dir, "b", "50,40,20,10,0,2\n"),
		createTestPair(t, dir, "c", "50,40,20,10,0,3\n"),
	}

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 1), pairs, MaskTask(testBuilder(t), "_P", ""))
	require.Error(t, err)
	require.True(t, Fatal(err))
	require.Equal(t, 0, sum.Processed)
	require.NoFileExists(t, filepath.Join(dir, "c_P.png"))
}

func TestCropTask(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	pairs := []record.Pair{
		createTestPair(t, dir, "img", "50,40,20,10,0,2\n500,500,5,5,0,1\n"),
	}

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 0), pairs, CropTask(crop.New(), out))
	require.NoError(t, err)
	require.Equal(t, 1, sum.Skipped)
	require.Equal(t, []string{filepath.Join(out, "img_30_30_70_50_2.0.png")}, sum.Outputs)
}

func TestFrameTaskFeedsCOCO(t *testing.T) {
	dir := t.TempDir()
	pairs := []record.Pair{
		createTestPair(t, dir, "f0", "50,40,20,10,0,2\n"),
		createTestPair(t, dir, "f1", "10,10,20,10,0,5\n"),
	}

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 2), pairs, FrameTask())
	require.NoError(t, err)
	require.Len(t, sum.Frames, 2)
	require.Equal(t, "f0.png", sum.Frames[0].FileName)
	require.Equal(t, 100, sum.Frames[1].Width)

	q, err := ellipse.NewQuantizer(0.5)
	require.NoError(t, err)
	ds, skipped := coco.Exporter{Quantizer: q, MaxRings: ellipse.MaxRings}.Build(sum.Frames)
	require.Zero(t, skipped)
	require.Len(t, ds.Annotations, 2)
	require.Equal(t, [4]float64{0, 0, 30, 20}, ds.Annotations[1].BBox)
}

func TestSynthTask(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, synth.PrepareDirs(out))
	cfg := synth.DefaultConfig()
	cfg.Width, cfg.Height = 128, 96

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 2), []int{0, 1, 2}, SynthTask(synth.New(cfg), out))
	require.NoError(t, err)
	require.Equal(t, 3, sum.Processed)
	require.FileExists(t, filepath.Join(out, "annotations", "steelpan_0000002.csv"))
}

func TestGrabRecent(t *testing.T) {
	d1, d2, dest := t.TempDir(), t.TempDir(), t.TempDir()
	for _, d := range []string{d1, d2} {
		require.NoError(t, os.WriteFile(filepath.Join(d, "x.csv"), []byte(d), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(d1, "y.csv"), []byte("only"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(d1, "x.csv"), old, old))

	plans, err := PlanGrabRecent([]string{d1, d2})
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, filepath.Join(d2, "x.csv"), plans[0].Source)
	require.Equal(t, 1, LaterCount(plans))

	var buf bytes.Buffer
	sum, err := Run(context.Background(), testRunner(&buf, 2), plans, GrabTask(dest))
	require.NoError(t, err)
	require.Equal(t, 2, sum.Processed)

	data, err := os.ReadFile(filepath.Join(dest, "x.csv"))
	require.NoError(t, err)
	require.Equal(t, d2, string(data))
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	sum, err := Run(ctx, testRunner(&buf, 1), []int{1, 2, 3}, func(context.Context, int) Result {
		return Result{}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, sum.Processed)
}
