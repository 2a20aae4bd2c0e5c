package classifier

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/dataset"
	"github.com/mujeebjan09/Human-activity-recognition/internal/nn"
	"github.com/mujeebjan09/Human-activity-recognition/pkg/metrics"
)

// TrainConfig holds the optimization and early-stopping settings.
type TrainConfig struct {
	Epochs       int     `json:"epochs" mapstructure:"epochs"`
	BatchSize    int     `json:"batch_size" mapstructure:"batch_size"`
	LearningRate float64 `json:"learning_rate" mapstructure:"learning_rate"`
	Patience     int     `json:"patience" mapstructure:"patience"`
	Seed         int64   `json:"seed" mapstructure:"seed"`
}

// DefaultTrainConfig returns the optimization settings used across folds.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{Epochs: 60, BatchSize: 32, LearningRate: 1e-3, Patience: 5, Seed: 7}
}

// History records the per-epoch traces of one training run.
type History struct {
	TrainLoss []float64
	ValLoss   []float64
	ValAcc    []float64
	BestEpoch int
	Stopped   bool // halted by early stopping before the epoch budget
}

// Classifier wraps one compiled hybrid model with its training procedure.
// Each instance owns an independent parameter set; cross-validation folds
// must construct a fresh one.
type Classifier struct {
	modelCfg ModelConfig
	trainCfg TrainConfig
	logger   *zap.SugaredLogger

	inWidth    int
	numClasses int
	model      *nn.Model
	rng        *rand.Rand
}

// New compiles a freshly initialized hybrid classifier for reduced vectors
// of width d over numClasses activities.
func New(modelCfg ModelConfig, trainCfg TrainConfig, d, numClasses int, logger *zap.SugaredLogger) (*Classifier, error) {
	rng := rand.New(rand.NewSource(trainCfg.Seed))
	model, err := buildHybrid(modelCfg, d, numClasses, rng)
	if err != nil {
		return nil, fmt.Errorf("build hybrid classifier: %w", err)
	}
	return &Classifier{
		modelCfg:   modelCfg,
		trainCfg:   trainCfg,
		logger:     logger,
		inWidth:    d,
		numClasses: numClasses,
		model:      model,
		rng:        rng,
	}, nil
}

// Model exposes the compiled graph for shape assertions.
func (c *Classifier) Model() *nn.Model { return c.model }

// Train minimizes categorical cross-entropy with Adam, monitoring
// validation loss. Training halts once validation loss fails to improve for
// Patience consecutive epochs and the best-epoch parameters are restored.
func (c *Classifier) Train(trainX *mat.Dense, trainY []int, valX *mat.Dense, valY []int) (*History, error) {
	if err := c.checkWidth(trainX); err != nil {
		return nil, err
	}
	if err := c.checkWidth(valX); err != nil {
		return nil, err
	}

	rows, _ := trainX.Dims()
	trainT := dataset.OneHot(trainY, c.numClasses)
	valT := dataset.OneHot(valY, c.numClasses)
	opt := nn.NewAdam(c.trainCfg.LearningRate)

	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	hist := &History{}
	bestVal := 0.0
	var bestSnap []*mat.Dense
	patience := 0

	for epoch := 0; epoch < c.trainCfg.Epochs; epoch++ {
		c.rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		epochLoss, batches := 0.0, 0
		for start := 0; start < rows; start += c.trainCfg.BatchSize {
			end := start + c.trainCfg.BatchSize
			if end > rows {
				end = rows
			}
			bx := mat.NewDense(end-start, c.inWidth, nil)
			by := mat.NewDense(end-start, c.numClasses, nil)
			for i := start; i < end; i++ {
				bx.SetRow(i-start, mat.Row(nil, order[i], trainX))
				by.SetRow(i-start, mat.Row(nil, order[i], trainT))
			}
			probs, err := c.model.Forward(bx, true)
			if err != nil {
				return nil, err
			}
			loss, grad := nn.CrossEntropyLoss(probs, by)
			c.model.Backward(grad)
			opt.Step(c.model.Params())
			epochLoss += loss
			batches++
		}

		valLoss, valAcc, err := c.evaluate(valX, valT, valY)
		if err != nil {
			return nil, err
		}
		trainLoss := epochLoss / float64(batches)
		hist.TrainLoss = append(hist.TrainLoss, trainLoss)
		hist.ValLoss = append(hist.ValLoss, valLoss)
		hist.ValAcc = append(hist.ValAcc, valAcc)
		metrics.EpochLoss.WithLabelValues("classifier").Set(trainLoss)

		if bestSnap == nil || valLoss < bestVal {
			bestVal = valLoss
			bestSnap = c.model.Snapshot()
			hist.BestEpoch = epoch
			patience = 0
		} else {
			patience++
			if patience >= c.trainCfg.Patience {
				hist.Stopped = true
				c.logger.Infow("Early stopping triggered",
					"epoch", epoch+1,
					"best_epoch", hist.BestEpoch+1,
					"best_val_loss", bestVal,
				)
				break
			}
		}
	}
	if bestSnap != nil {
		c.model.Restore(bestSnap)
	}
	return hist, nil
}

// evaluate returns validation loss and top-1 accuracy.
func (c *Classifier) evaluate(x *mat.Dense, t *mat.Dense, y []int) (float64, float64, error) {
	probs, err := c.model.Forward(x, false)
	if err != nil {
		return 0, 0, err
	}
	loss, _ := nn.CrossEntropyLoss(probs, t)
	correct := 0
	for i, label := range y {
		if argmaxRow(probs, i) == label {
			correct++
		}
	}
	return loss, float64(correct) / float64(len(y)), nil
}

// Predict returns the highest-probability class for each row.
func (c *Classifier) Predict(x *mat.Dense) ([]int, error) {
	if err := c.checkWidth(x); err != nil {
		return nil, err
	}
	probs, err := c.model.Forward(x, false)
	if err != nil {
		return nil, err
	}
	rows, _ := probs.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = argmaxRow(probs, i)
	}
	return out, nil
}

func (c *Classifier) checkWidth(x *mat.Dense) error {
	_, cols := x.Dims()
	if cols != c.inWidth {
		return &nn.DimensionMismatchError{Stage: "hybrid classifier", Got: cols, Want: c.inWidth}
	}
	return nil
}

func argmaxRow(m *mat.Dense, row int) int {
	_, cols := m.Dims()
	best, bi := m.At(row, 0), 0
	for j := 1; j < cols; j++ {
		if v := m.At(row, j); v > best {
			best, bi = v, j
		}
	}
	return bi
}
