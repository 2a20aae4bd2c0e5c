// =============================
// Adversarial Balancer Networks
// =============================
// Generator and discriminator as two independently owned parameter sets.
// Each optimization step computes its loss from an immutable snapshot of the
// other network's current output; there is no shared mutable coupling state.

package balancer

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/nn"
)

// Config holds the adversarial training hyperparameters.
type Config struct {
	NoiseDim         int     `json:"noise_dim" mapstructure:"noise_dim"`
	HiddenDim        int     `json:"hidden_dim" mapstructure:"hidden_dim"`
	Epochs           int     `json:"epochs" mapstructure:"epochs"`
	BatchSize        int     `json:"batch_size" mapstructure:"batch_size"`
	LearningRate     float64 `json:"learning_rate" mapstructure:"learning_rate"`
	Seed             int64   `json:"seed" mapstructure:"seed"`
	DivergenceWindow int     `json:"divergence_window" mapstructure:"divergence_window"`
	MaxRetries       int     `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig returns the settings used for reduced activity features.
func DefaultConfig() Config {
	return Config{
		NoiseDim:         64,
		HiddenDim:        128,
		Epochs:           100,
		BatchSize:        32,
		LearningRate:     2e-4,
		Seed:             7,
		DivergenceWindow: 3,
		MaxRetries:       1,
	}
}

// DivergenceError reports adversarial losses that became non-finite for the
// configured number of consecutive checkpoints. The balancer never produces
// samples from a diverged generator.
type DivergenceError struct {
	Class      string
	Checkpoint int
	GenLoss    float64
	DiscLoss   float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("adversarial training diverged for class %q at checkpoint %d (generator loss %v, discriminator loss %v)",
		e.Class, e.Checkpoint, e.GenLoss, e.DiscLoss)
}

// gan is one generator/discriminator pair trained on a single class subset.
type gan struct {
	cfg     Config
	width   int // reduced feature width d
	logger  *zap.SugaredLogger
	rng     *rand.Rand
	gen     *nn.Model
	disc    *nn.Model
	genOpt  *nn.Adam
	discOpt *nn.Adam

	genLoss  []float64
	discLoss []float64
}

func newGAN(cfg Config, width int, seed int64, logger *zap.SugaredLogger) (*gan, error) {
	rng := rand.New(rand.NewSource(seed))

	// Generator: noise -> hidden -> d, bounded to [-1,1] by tanh to match
	// the scaled feature space.
	gg := nn.NewGraph("generator")
	if err := gg.Input("noise", nn.Shape{Len: cfg.NoiseDim, Ch: 1}); err != nil {
		return nil, err
	}
	if err := gg.Stage("fc1", nn.NewDense("g_fc1", cfg.NoiseDim, cfg.HiddenDim, rng), "noise"); err != nil {
		return nil, err
	}
	if err := gg.Stage("act1", nn.NewActivation(nn.ActLeakyReLU), "fc1"); err != nil {
		return nil, err
	}
	if err := gg.Stage("fc2", nn.NewDense("g_fc2", cfg.HiddenDim, width, rng), "act1"); err != nil {
		return nil, err
	}
	if err := gg.Stage("out", nn.NewActivation(nn.ActTanh), "fc2"); err != nil {
		return nil, err
	}
	gen, err := gg.Compile("out")
	if err != nil {
		return nil, fmt.Errorf("compile generator: %w", err)
	}

	// Discriminator: d -> hidden -> real/synthetic probability.
	dg := nn.NewGraph("discriminator")
	if err := dg.Input("sample", nn.Shape{Len: width, Ch: 1}); err != nil {
		return nil, err
	}
	if err := dg.Stage("fc1", nn.NewDense("d_fc1", width, cfg.HiddenDim, rng), "sample"); err != nil {
		return nil, err
	}
	if err := dg.Stage("act1", nn.NewActivation(nn.ActLeakyReLU), "fc1"); err != nil {
		return nil, err
	}
	if err := dg.Stage("fc2", nn.NewDense("d_fc2", cfg.HiddenDim, 1, rng), "act1"); err != nil {
		return nil, err
	}
	if err := dg.Stage("prob", nn.NewActivation(nn.ActSigmoid), "fc2"); err != nil {
		return nil, err
	}
	disc, err := dg.Compile("prob")
	if err != nil {
		return nil, fmt.Errorf("compile discriminator: %w", err)
	}

	return &gan{
		cfg:     cfg,
		width:   width,
		logger:  logger,
		rng:     rng,
		gen:     gen,
		disc:    disc,
		genOpt:  nn.NewAdam(cfg.LearningRate),
		discOpt: nn.NewAdam(cfg.LearningRate),
	}, nil
}

func (g *gan) noise(n int) *mat.Dense {
	out := mat.NewDense(n, g.cfg.NoiseDim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < g.cfg.NoiseDim; j++ {
			out.Set(i, j, g.rng.NormFloat64())
		}
	}
	return out
}

func constant(rows int, v float64) *mat.Dense {
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, v)
	}
	return out
}

// train runs the alternating optimization for the fixed epoch budget,
// recording per-checkpoint losses. class is only used for diagnostics.
func (g *gan) train(real *mat.Dense, class string) error {
	rows, _ := real.Dims()
	batch := g.cfg.BatchSize
	if batch > rows {
		batch = rows
	}
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	nonFinite := 0
	for epoch := 0; epoch < g.cfg.Epochs; epoch++ {
		g.rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		epochG, epochD, steps := 0.0, 0.0, 0

		for start := 0; start+batch <= rows; start += batch {
			// (1) synthetic batch from the current generator snapshot
			synthetic, err := g.gen.Forward(g.noise(batch), true)
			if err != nil {
				return err
			}
			// (2) real batch from the class subset
			realBatch := mat.NewDense(batch, g.width, nil)
			for i := 0; i < batch; i++ {
				realBatch.SetRow(i, mat.Row(nil, order[start+i], real))
			}

			// (3) discriminator update: real labeled 1, synthetic labeled 0;
			// loss is the average of the two binary losses.
			probReal, err := g.disc.Forward(realBatch, true)
			if err != nil {
				return err
			}
			lossReal, gradReal := nn.BCELoss(probReal, constant(batch, 1))
			gradReal.Scale(0.5, gradReal)
			g.disc.Backward(gradReal)

			probFake, err := g.disc.Forward(mat.DenseCopyOf(synthetic), true)
			if err != nil {
				return err
			}
			lossFake, gradFake := nn.BCELoss(probFake, constant(batch, 0))
			gradFake.Scale(0.5, gradFake)
			g.disc.Backward(gradFake)
			g.discOpt.Step(g.disc.Params())
			dLoss := (lossReal + lossFake) / 2

			// (4) generator update through the frozen discriminator: push
			// the assigned real-probability of synthetic samples toward 1.
			// Discriminator gradients from this pass are discarded.
			synthetic, err = g.gen.Forward(g.noise(batch), true)
			if err != nil {
				return err
			}
			probSyn, err := g.disc.Forward(synthetic, true)
			if err != nil {
				return err
			}
			gLoss, gradSyn := nn.BCELoss(probSyn, constant(batch, 1))
			dSynthetic := g.disc.Backward(gradSyn)
			g.disc.ZeroGrads()
			g.gen.Backward(dSynthetic)
			g.genOpt.Step(g.gen.Params())

			epochG += gLoss
			epochD += dLoss
			steps++
		}
		if steps == 0 {
			return fmt.Errorf("class %q subset smaller than one batch", class)
		}

		avgG, avgD := epochG/float64(steps), epochD/float64(steps)
		g.genLoss = append(g.genLoss, avgG)
		g.discLoss = append(g.discLoss, avgD)

		if math.IsNaN(avgG) || math.IsInf(avgG, 0) || math.IsNaN(avgD) || math.IsInf(avgD, 0) {
			nonFinite++
			if nonFinite >= g.cfg.DivergenceWindow {
				return &DivergenceError{Class: class, Checkpoint: epoch + 1, GenLoss: avgG, DiscLoss: avgD}
			}
		} else {
			nonFinite = 0
		}

		if (epoch+1)%20 == 0 || epoch == g.cfg.Epochs-1 {
			g.logger.Debugw("Adversarial epoch completed",
				"class", class,
				"epoch", epoch+1,
				"generator_loss", avgG,
				"discriminator_loss", avgD,
			)
		}
	}
	return nil
}

// sample draws n synthetic samples from the trained generator. Values stay
// in [-1,1] until the caller inverse-scales them.
func (g *gan) sample(n int) (*mat.Dense, error) {
	out, err := g.gen.Forward(g.noise(n), false)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(out), nil
}
