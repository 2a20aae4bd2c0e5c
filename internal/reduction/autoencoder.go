package reduction

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/nn"
)

// AutoencoderConfig holds the learned-variant hyperparameters.
type AutoencoderConfig struct {
	TargetDim    int     `json:"target_dim" mapstructure:"target_dim"`
	HiddenDim    int     `json:"hidden_dim" mapstructure:"hidden_dim"`
	Epochs       int     `json:"epochs" mapstructure:"epochs"`
	BatchSize    int     `json:"batch_size" mapstructure:"batch_size"`
	LearningRate float64 `json:"learning_rate" mapstructure:"learning_rate"`
	Seed         int64   `json:"seed" mapstructure:"seed"`
}

// DefaultAutoencoderConfig returns the hyperparameters used for the 561-wide
// sensor feature vectors.
func DefaultAutoencoderConfig() AutoencoderConfig {
	return AutoencoderConfig{
		TargetDim:    125,
		HiddenDim:    300,
		Epochs:       30,
		BatchSize:    64,
		LearningRate: 1e-3,
		Seed:         7,
	}
}

// Autoencoder learns an encode/decode pair minimizing reconstruction MSE.
// Only the encoding half is used by Apply. Training runs a fixed epoch
// budget; the per-epoch reconstruction loss trace stays observable so a
// failure to converge is visible to the caller.
type Autoencoder struct {
	cfg    AutoencoderConfig
	logger *zap.SugaredLogger

	model   *nn.Model
	inWidth int
	lossLog []float64
}

// NewAutoencoder creates an untrained autoencoder reducer.
func NewAutoencoder(cfg AutoencoderConfig, logger *zap.SugaredLogger) *Autoencoder {
	return &Autoencoder{cfg: cfg, logger: logger}
}

// OutputWidth returns the latent width d.
func (a *Autoencoder) OutputWidth() int { return a.cfg.TargetDim }

// LossTrace returns the per-epoch reconstruction loss of the last Fit.
func (a *Autoencoder) LossTrace() []float64 { return a.lossLog }

func (a *Autoencoder) build(inWidth int, rng *rand.Rand) (*nn.Model, error) {
	g := nn.NewGraph("autoencoder")
	if err := g.Input("in", nn.Shape{Len: inWidth, Ch: 1}); err != nil {
		return nil, err
	}
	stages := []struct {
		name  string
		layer nn.Layer
		input string
	}{
		{"enc_fc", nn.NewDense("enc_fc", inWidth, a.cfg.HiddenDim, rng), "in"},
		{"enc_act", nn.NewActivation(nn.ActReLU), "enc_fc"},
		{"code", nn.NewDense("code", a.cfg.HiddenDim, a.cfg.TargetDim, rng), "enc_act"},
		{"dec_fc", nn.NewDense("dec_fc", a.cfg.TargetDim, a.cfg.HiddenDim, rng), "code"},
		{"dec_act", nn.NewActivation(nn.ActReLU), "dec_fc"},
		{"recon", nn.NewDense("recon", a.cfg.HiddenDim, inWidth, rng), "dec_act"},
	}
	for _, s := range stages {
		if err := g.Stage(s.name, s.layer, s.input); err != nil {
			return nil, err
		}
	}
	return g.Compile("recon")
}

// Fit trains the encode/decode pair on the training matrix.
func (a *Autoencoder) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	rng := rand.New(rand.NewSource(a.cfg.Seed))

	model, err := a.build(cols, rng)
	if err != nil {
		return fmt.Errorf("build autoencoder: %w", err)
	}
	a.model = model
	a.inWidth = cols
	a.lossLog = a.lossLog[:0]

	opt := nn.NewAdam(a.cfg.LearningRate)
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	a.logger.Infow("Starting autoencoder training",
		"input_width", cols,
		"target_dim", a.cfg.TargetDim,
		"epochs", a.cfg.Epochs,
	)

	for epoch := 0; epoch < a.cfg.Epochs; epoch++ {
		rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		epochLoss, batches := 0.0, 0
		for start := 0; start < rows; start += a.cfg.BatchSize {
			end := start + a.cfg.BatchSize
			if end > rows {
				end = rows
			}
			batch := gatherRows(x, order[start:end])
			recon, err := model.Forward(batch, true)
			if err != nil {
				return fmt.Errorf("autoencoder forward: %w", err)
			}
			loss, grad := nn.MSELoss(recon, batch)
			model.Backward(grad)
			opt.Step(model.Params())
			epochLoss += loss
			batches++
		}
		avg := epochLoss / float64(batches)
		a.lossLog = append(a.lossLog, avg)
		if (epoch+1)%10 == 0 || epoch == a.cfg.Epochs-1 {
			a.logger.Infow("Autoencoder epoch completed", "epoch", epoch+1, "reconstruction_loss", avg)
		}
	}
	return nil
}

// Apply encodes a matrix through the trained encoder half.
func (a *Autoencoder) Apply(x *mat.Dense) (*mat.Dense, error) {
	if a.model == nil {
		return nil, fmt.Errorf("autoencoder: Apply before Fit")
	}
	_, cols := x.Dims()
	if cols != a.inWidth {
		return nil, &DimensionMismatchError{Stage: "autoencoder", Got: cols, Want: a.inWidth}
	}
	if _, err := a.model.Forward(x, false); err != nil {
		return nil, err
	}
	code, ok := a.model.StageOutput("code")
	if !ok {
		return nil, fmt.Errorf("autoencoder: code stage missing from graph")
	}
	return code, nil
}

func gatherRows(x *mat.Dense, indices []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		out.SetRow(i, mat.Row(nil, idx, x))
	}
	return out
}
