package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EpochLoss tracks the latest training loss per pipeline stage
var EpochLoss = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "har_training_epoch_loss",
		Help: "Most recent per-epoch training loss by stage",
	},
	[]string{"stage"},
)

// SyntheticSamples counts adversarially generated samples per class
var SyntheticSamples = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "har_synthetic_samples_total",
		Help: "Synthetic samples generated by the adversarial balancer",
	},
	[]string{"class"},
)

// DivergenceRetries counts balancer restarts after non-finite losses
var DivergenceRetries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "har_balancer_divergence_retries_total",
		Help: "Adversarial training retries triggered by divergence",
	},
	[]string{"class"},
)

// Cross-validation metrics
var (
	FoldDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "har_fold_duration_seconds",
			Help:    "Wall time to train and evaluate one cross-validation fold",
			Buckets: prometheus.DefBuckets,
		},
	)

	FoldAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "har_fold_accuracy",
			Help: "Validation accuracy per cross-validation fold",
		},
		[]string{"fold"},
	)
)

func init() {
	prometheus.MustRegister(EpochLoss, SyntheticSamples, DivergenceRetries)
	prometheus.MustRegister(FoldDuration, FoldAccuracy)
}
