package balancer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/dataset"
	"github.com/mujeebjan09/Human-activity-recognition/pkg/metrics"
)

// ClassTrace exposes one class's adversarial loss history for diagnostics.
type ClassTrace struct {
	Class     string
	Generated int
	GenLoss   []float64
	DiscLoss  []float64
	Retried   bool
}

// Result is the balanced dataset plus per-class training traces.
type Result struct {
	Dataset *dataset.Dataset
	Traces  []ClassTrace
}

// Balancer corrects class imbalance by training one adversarial pair per
// under-represented class and drawing exactly the class deficit in synthetic
// samples, each tagged with that class's own label.
type Balancer struct {
	cfg     Config
	classes []string
	logger  *zap.SugaredLogger
}

// New creates a balancer. classes maps label indices to display names for
// logs and errors.
func New(cfg Config, classes []string, logger *zap.SugaredLogger) *Balancer {
	return &Balancer{cfg: cfg, classes: classes, logger: logger}
}

func (b *Balancer) className(label int) string {
	if label >= 0 && label < len(b.classes) {
		return b.classes[label]
	}
	return fmt.Sprintf("class_%d", label)
}

// Balance brings every class up to the maximum observed count. Classes
// already at the maximum are untouched; a deficit of zero or less skips
// balancer instantiation entirely.
func (b *Balancer) Balance(ds *dataset.Dataset) (*Result, error) {
	dist := ds.Distribution()
	target := dist.MaxCount()
	b.logger.Infow("Starting adversarial balancing",
		"classes", len(dist),
		"target_count", target,
		"total_samples", dist.Total(),
	)

	out := ds
	result := &Result{}
	for label := 0; label < len(b.classes); label++ {
		count, ok := dist[label]
		if !ok {
			continue
		}
		deficit := target - count
		if deficit <= 0 {
			continue
		}
		synthetic, trace, err := b.balanceClass(ds, label, deficit)
		if err != nil {
			result.Dataset = out // partial results from completed classes
			return result, err
		}
		out, err = out.Append(synthetic, label)
		if err != nil {
			return nil, fmt.Errorf("append synthetic samples for %s: %w", b.className(label), err)
		}
		result.Traces = append(result.Traces, *trace)
		metrics.SyntheticSamples.WithLabelValues(trace.Class).Add(float64(deficit))
	}
	result.Dataset = out

	b.logger.Infow("Adversarial balancing completed",
		"balanced_total", out.Len(),
		"classes_balanced", len(result.Traces),
	)
	return result, nil
}

// balanceClass trains one adversarial pair on the class subset and draws the
// deficit. A diverged run is retried once with reinitialized parameters
// before the error is surfaced.
func (b *Balancer) balanceClass(ds *dataset.Dataset, label, deficit int) (*mat.Dense, *ClassTrace, error) {
	name := b.className(label)
	rows := ds.ClassRows(label)
	if rows == nil {
		return nil, nil, fmt.Errorf("class %s has no samples to learn from", name)
	}

	// Reduced features are rescaled into the generator's [-1,1] range; the
	// inverse mapping is applied to every drawn sample.
	scaler := &dataset.RangeScaler{}
	scaler.Fit(rows)
	scaled, err := scaler.Transform(rows)
	if err != nil {
		return nil, nil, err
	}

	b.logger.Infow("Training class balancer",
		"class", name,
		"real_samples", len(ds.Y),
		"class_samples", rowCount(rows),
		"deficit", deficit,
	)

	trace := &ClassTrace{Class: name, Generated: deficit}
	var g *gan
	for attempt := 0; ; attempt++ {
		g, err = newGAN(b.cfg, ds.Width(), b.cfg.Seed+int64(label)*1000+int64(attempt), b.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build balancer for %s: %w", name, err)
		}
		err = g.train(scaled, name)
		if err == nil {
			break
		}
		var div *DivergenceError
		if errors.As(err, &div) && attempt < b.cfg.MaxRetries {
			b.logger.Warnw("Adversarial training diverged, retrying with reinitialized parameters",
				"class", name,
				"checkpoint", div.Checkpoint,
				"attempt", attempt+1,
			)
			trace.Retried = true
			metrics.DivergenceRetries.WithLabelValues(name).Inc()
			continue
		}
		return nil, nil, err
	}
	trace.GenLoss = g.genLoss
	trace.DiscLoss = g.discLoss

	bounded, err := g.sample(deficit)
	if err != nil {
		return nil, nil, fmt.Errorf("draw synthetic samples for %s: %w", name, err)
	}
	synthetic, err := scaler.InverseTransform(bounded)
	if err != nil {
		return nil, nil, err
	}
	return synthetic, trace, nil
}

func rowCount(m *mat.Dense) int {
	r, _ := m.Dims()
	return r
}
