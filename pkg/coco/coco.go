// Package coco exports ellipse annotations as a COCO-style bounding-box
// dataset.
package coco

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
)

// Category is one detection class.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Image is one frame of the dataset.
type Image struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is one antinode box, [x, y, width, height] in pixels.
type Annotation struct {
	ID         int        `json:"id"`
	ImageID    int        `json:"image_id"`
	BBox       [4]float64 `json:"bbox"`
	Area       float64    `json:"area"`
	CategoryID int        `json:"category_id"`
	Rings      float64    `json:"rings"`
	IsCrowd    int        `json:"iscrowd"`
}

// Info identifies a generated dataset.
type Info struct {
	DatasetID   string  `json:"dataset_id"`
	Description string  `json:"description"`
	RingStep    float64 `json:"ring_step,omitempty"`
	Regression  bool    `json:"regression"`
}

// Dataset is the exported document.
type Dataset struct {
	Info        Info         `json:"info"`
	Categories  []Category   `json:"categories"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
}

// Frame is one record's annotations together with its image metadata.
type Frame struct {
	FileName    string
	Width       int
	Height      int
	Annotations []ellipse.Annotation
}

// Exporter builds datasets. In regression mode there is a single "rings"
// category and the model is expected to regress the ring count; otherwise
// every quantized ring class is its own category.
type Exporter struct {
	Quantizer  ellipse.Quantizer
	Regression bool
	MaxRings   float64
}

// Categories lists the dataset classes.
func (e Exporter) Categories() []Category {
	if e.Regression {
		return []Category{{ID: 0, Name: "rings"}}
	}
	n := e.Quantizer.NumClasses(e.MaxRings)
	cats := make([]Category, n)
	for i := range cats {
		cats[i] = Category{ID: i, Name: strconv.Itoa(i)}
	}
	return cats
}

// Build assembles a dataset from frames. Placeholders are omitted and boxes
// are clamped to each image; annotations whose clamped box is empty are
// skipped and counted.
func (e Exporter) Build(frames []Frame) (Dataset, int) {
	ds := Dataset{
		Info: Info{
			DatasetID:   uuid.NewString(),
			Description: "steelpan ESPI antinode bounding boxes",
			Regression:  e.Regression,
		},
		Categories:  e.Categories(),
		Images:      make([]Image, 0, len(frames)),
		Annotations: []Annotation{},
	}
	if !e.Regression {
		ds.Info.RingStep = e.Quantizer.Step()
	}

	skipped := 0
	for i, f := range frames {
		ds.Images = append(ds.Images, Image{ID: i, FileName: f.FileName, Width: f.Width, Height: f.Height})
		for _, a := range f.Annotations {
			if a.IsPlaceholder() {
				continue
			}
			box, err := a.ClampedBoundingBox(float64(f.Width), float64(f.Height))
			if err != nil {
				skipped++
				continue
			}
			cat := 0
			if !e.Regression {
				cat = e.Quantizer.Index(a.Rings)
			}
			ds.Annotations = append(ds.Annotations, Annotation{
				ID:         len(ds.Annotations),
				ImageID:    i,
				BBox:       box.XYWH(),
				Area:       box.Area(),
				CategoryID: cat,
				Rings:      a.Rings,
			})
		}
	}
	return ds, skipped
}

// WriteFile stores the dataset as JSON.
func (d Dataset) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a dataset written by WriteFile.
func ReadFile(path string) (Dataset, error) {
	var d Dataset
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return d, nil
}
