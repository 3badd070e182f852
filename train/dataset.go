// Package train fits HybridNeuMF parameters from labelled interactions.
package train

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Sample is one labelled (face shape, item, features) interaction.
type Sample struct {
	Shape    int
	Item     int
	Features core.GeometricFeatures
	Label    float64
}

// Dataset is an in-memory training set.
type Dataset struct {
	Samples []Sample
}

func (d *Dataset) Len() int { return len(d.Samples) }

// MaxItemID returns the largest item id, or -1 for an empty set.
func (d *Dataset) MaxItemID() int {
	hi := -1
	for _, s := range d.Samples {
		if s.Item > hi {
			hi = s.Item
		}
	}
	return hi
}

// Check reports the first sample whose ids fall outside the given table sizes.
func (d *Dataset) Check(numShapes, numItems int) error {
	for i, s := range d.Samples {
		if s.Shape < 0 || s.Shape >= numShapes {
			return fmt.Errorf("sample %d: shape_id %d out of range [0,%d)", i, s.Shape, numShapes)
		}
		if s.Item < 0 || s.Item >= numItems {
			return fmt.Errorf("sample %d: item_id %d out of range [0,%d)", i, s.Item, numItems)
		}
	}
	return nil
}

var requiredColumns = []string{"shape_id", "item_id", "cheek_jaw", "face_hw", "midface", "label"}

// LoadCSV reads a dataset file. See ReadCSV for the format.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses a header row followed by one sample per row. The columns shape_id,
// item_id, cheek_jaw, face_hw, midface and label are required in any order; other
// columns are ignored. Labels must be 0 or 1.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(requiredColumns))
	for i, name := range requiredColumns {
		c, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = c
	}

	ds := &Dataset{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s, err := parseSample(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Samples = append(ds.Samples, s)
	}
	if len(ds.Samples) == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return ds, nil
}

func parseSample(rec []string, cols []int) (Sample, error) {
	field := func(i int) string { return strings.TrimSpace(rec[cols[i]]) }

	var (
		s   Sample
		err error
	)
	if s.Shape, err = strconv.Atoi(field(0)); err != nil {
		return s, fmt.Errorf("shape_id: %w", err)
	}
	if s.Item, err = strconv.Atoi(field(1)); err != nil {
		return s, fmt.Errorf("item_id: %w", err)
	}
	ratios := []*float64{&s.Features.CheekJaw, &s.Features.FaceHW, &s.Features.Midface}
	for i, dst := range ratios {
		if *dst, err = strconv.ParseFloat(field(2+i), 64); err != nil {
			return s, fmt.Errorf("%s: %w", requiredColumns[2+i], err)
		}
	}
	if s.Label, err = strconv.ParseFloat(field(5), 64); err != nil {
		return s, fmt.Errorf("label: %w", err)
	}
	if s.Label != 0 && s.Label != 1 {
		return s, fmt.Errorf("label must be 0 or 1, got %v", s.Label)
	}
	return s, nil
}
