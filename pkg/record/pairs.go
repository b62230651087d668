package record

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drscotthawley/espiownage/internal/utils"
)

// ErrMissingAsset marks a record or image file that should exist but doesn't.
var ErrMissingAsset = errors.New("missing asset")

// Pair links an annotation record with the image it describes.
type Pair struct {
	Record string
	Image  string
}

// ImagePath returns the image that belongs to a record file.
func ImagePath(recordPath, imageExt string) string {
	return utils.WithExt(recordPath, imageExt)
}

// MaskPath returns the segmentation mask path for a record, e.g. stem_P.png.
func MaskPath(recordPath, suffix string) string {
	return strings.TrimSuffix(recordPath, filepath.Ext(recordPath)) + suffix + ".png"
}

// PairFiles expands args (record files or directories of records) into
// record/image pairs. Every problem is collected; if any record or image is
// missing the returned error wraps ErrMissingAsset and lists all of them.
func PairFiles(args []string, imageExt string) ([]Pair, error) {
	var records []string
	for _, arg := range args {
		if utils.DirExists(arg) {
			files, err := utils.ListFilesWithExt(arg, "csv")
			if err != nil {
				return nil, err
			}
			records = append(records, files...)
			continue
		}
		records = append(records, arg)
	}

	var pairs []Pair
	var errs []error
	for _, rec := range records {
		if !utils.FileExists(rec) {
			errs = append(errs, fmt.Errorf("%w: record %s", ErrMissingAsset, rec))
			continue
		}
		img := ImagePath(rec, imageExt)
		if !utils.FileExists(img) {
			errs = append(errs, fmt.Errorf("%w: image %s", ErrMissingAsset, img))
			continue
		}
		pairs = append(pairs, Pair{Record: rec, Image: img})
	}
	if len(errs) > 0 {
		return pairs, errors.Join(errs...)
	}
	return pairs, nil
}
