package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLabelEncoder(t *testing.T) {
	t.Run("StableOrdering", func(t *testing.T) {
		e := FitLabelEncoder([]string{"WALKING", "SITTING", "STANDING", "WALKING"})
		assert.Equal(t, []string{"SITTING", "STANDING", "WALKING"}, e.Classes())
		assert.Equal(t, 3, e.NumClasses())

		y, err := e.Transform([]string{"WALKING", "SITTING"})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0}, y)
	})

	t.Run("UnknownTestLabelFails", func(t *testing.T) {
		e := FitLabelEncoder([]string{"WALKING", "SITTING"})
		_, err := e.Transform([]string{"LAYING"})
		require.Error(t, err)
		var unknown *UnknownLabelError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "LAYING", unknown.Label)
	})
}

func TestClassDistribution(t *testing.T) {
	x := mat.NewDense(6, 2, nil)
	ds, err := New(x, []int{0, 0, 0, 1, 1, 2})
	require.NoError(t, err)

	dist := ds.Distribution()
	assert.Equal(t, 6, dist.Total(), "counts must sum to the dataset size")
	assert.Equal(t, 3, dist.MaxCount())
	assert.Equal(t, ClassDistribution{0: 3, 1: 2, 2: 1}, dist)
}

func TestDatasetAppend(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	ds, err := New(x, []int{0, 1})
	require.NoError(t, err)

	extra := mat.NewDense(2, 3, []float64{7, 8, 9, 10, 11, 12})
	out, err := ds.Append(extra, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, []int{0, 1, 1, 1}, out.Y)
	assert.Equal(t, []float64{10, 11, 12}, mat.Row(nil, 3, out.X))

	_, err = ds.Append(mat.NewDense(1, 4, nil), 0)
	assert.Error(t, err, "width mismatch must be rejected")
}

func TestOneHot(t *testing.T) {
	oh := OneHot([]int{2, 0, 1}, 3)
	assert.Equal(t, []float64{0, 0, 1}, mat.Row(nil, 0, oh))
	assert.Equal(t, []float64{1, 0, 0}, mat.Row(nil, 1, oh))
	assert.Equal(t, []float64{0, 1, 0}, mat.Row(nil, 2, oh))
}

func TestStandardScaler(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	s := &StandardScaler{}
	s.Fit(x)
	out, err := s.Transform(x)
	require.NoError(t, err)

	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += out.At(i, j)
		}
		assert.InDelta(t, 0, sum/4, 1e-12, "column %d should be centered", j)
	}

	_, err = s.Transform(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestRangeScalerRoundTrip(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		-4, 100,
		0, 150,
		4, 200,
	})
	s := &RangeScaler{}
	s.Fit(x)
	scaled, err := s.Transform(x)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			v := scaled.At(i, j)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, x.At(i, j), back.At(i, j), 1e-9)
		}
	}
}

func TestSmooth(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{0, 10, 0, 10, 0})
	out, err := Smooth(x, 3)
	require.NoError(t, err)
	assert.InDelta(t, 5, out.At(0, 0), 1e-12, "edge shrinks the window")
	assert.InDelta(t, 10.0/3, out.At(1, 0), 1e-9)

	_, err = Smooth(x, 2)
	assert.Error(t, err, "even windows are rejected")
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.csv")
	content := "f1,f2,subject,Activity\n" +
		"0.1,0.2,s1,WALKING\n" +
		"0.3,0.4,s2,SITTING\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	raw, err := LoadCSV(path, "Activity", "subject")
	require.NoError(t, err)
	rows, cols := raw.Features.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []string{"f1", "f2"}, raw.FeatureNames)
	assert.Equal(t, []string{"WALKING", "SITTING"}, raw.Labels)
	assert.Equal(t, []string{"s1", "s2"}, raw.Subjects)

	t.Run("MissingLabelColumn", func(t *testing.T) {
		_, err := LoadCSV(path, "label", "subject")
		assert.Error(t, err)
	})

	t.Run("NonNumericFeature", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte("f1,subject,Activity\nx,s1,WALKING\n"), 0o644))
		_, err := LoadCSV(bad, "Activity", "subject")
		assert.Error(t, err)
	})
}

func TestPrepareSharedEncoding(t *testing.T) {
	train := &Raw{
		Features: mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8}),
		Labels:   []string{"WALKING", "SITTING", "WALKING", "SITTING"},
	}
	test := &Raw{
		Features: mat.NewDense(2, 2, []float64{2, 3, 4, 5}),
		Labels:   []string{"SITTING", "WALKING"},
	}

	prepared, err := Prepare(train, test, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, prepared.Encoder.NumClasses())
	assert.Equal(t, prepared.Train.Width(), prepared.Test.Width())

	// A test-only label must surface the encoding mismatch.
	test.Labels = []string{"SITTING", "LAYING"}
	_, err = Prepare(train, test, 1)
	var unknown *UnknownLabelError
	require.ErrorAs(t, err, &unknown)
}
