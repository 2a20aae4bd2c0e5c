package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Raw holds one parsed tabular file before encoding and scaling: the numeric
// feature block plus the two non-feature columns.
type Raw struct {
	Features     *mat.Dense
	FeatureNames []string
	Subjects     []string
	Labels       []string
}

// LoadCSV parses one observation-per-row file. labelCol and subjectCol name
// the two non-feature columns (matched case-insensitively); every other
// column must be numeric.
func LoadCSV(path, labelCol, subjectCol string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %s has no observation rows", path)
	}

	header := records[0]
	labelIdx, subjectIdx := -1, -1
	var featureIdx []int
	var featureNames []string
	for i, name := range header {
		switch {
		case strings.EqualFold(name, labelCol):
			labelIdx = i
		case strings.EqualFold(name, subjectCol):
			subjectIdx = i
		default:
			featureIdx = append(featureIdx, i)
			featureNames = append(featureNames, name)
		}
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("dataset %s: label column %q not found", path, labelCol)
	}
	if subjectIdx < 0 {
		return nil, fmt.Errorf("dataset %s: subject column %q not found", path, subjectCol)
	}

	rows := len(records) - 1
	features := mat.NewDense(rows, len(featureIdx), nil)
	subjects := make([]string, rows)
	labels := make([]string, rows)
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("dataset %s: row %d has %d columns, want %d", path, i+2, len(rec), len(header))
		}
		for j, col := range featureIdx {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("dataset %s: row %d column %q: %w", path, i+2, header[col], err)
			}
			features.Set(i, j, v)
		}
		subjects[i] = rec[subjectIdx]
		labels[i] = rec[labelIdx]
	}
	return &Raw{
		Features:     features,
		FeatureNames: featureNames,
		Subjects:     subjects,
		Labels:       labels,
	}, nil
}

// Prepared is the preprocessing output contract: standardized train and test
// matrices with a shared label encoding fit on training labels only.
type Prepared struct {
	Train   *Dataset
	Test    *Dataset
	Encoder *LabelEncoder
	Scaler  *StandardScaler
}

// Prepare smooths, standardizes and encodes a train/test pair. The scaler
// and encoding table are fit on the training split and applied to both.
func Prepare(train, test *Raw, smoothWindow int) (*Prepared, error) {
	trainX, testX := train.Features, test.Features
	if smoothWindow > 1 {
		var err error
		if trainX, err = Smooth(trainX, smoothWindow); err != nil {
			return nil, fmt.Errorf("smooth training features: %w", err)
		}
		if testX, err = Smooth(testX, smoothWindow); err != nil {
			return nil, fmt.Errorf("smooth test features: %w", err)
		}
	}

	scaler := &StandardScaler{}
	scaler.Fit(trainX)
	trainScaled, err := scaler.Transform(trainX)
	if err != nil {
		return nil, fmt.Errorf("standardize training features: %w", err)
	}
	testScaled, err := scaler.Transform(testX)
	if err != nil {
		return nil, fmt.Errorf("standardize test features: %w", err)
	}

	encoder := FitLabelEncoder(train.Labels)
	trainY, err := encoder.Transform(train.Labels)
	if err != nil {
		return nil, fmt.Errorf("encode training labels: %w", err)
	}
	testY, err := encoder.Transform(test.Labels)
	if err != nil {
		return nil, fmt.Errorf("encode test labels: %w", err)
	}

	trainSet, err := New(trainScaled, trainY)
	if err != nil {
		return nil, err
	}
	testSet, err := New(testScaled, testY)
	if err != nil {
		return nil, err
	}
	return &Prepared{Train: trainSet, Test: testSet, Encoder: encoder, Scaler: scaler}, nil
}
