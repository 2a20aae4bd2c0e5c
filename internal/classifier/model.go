// =============================
// Hybrid Activity Classifier
// =============================
// Two parallel feature-extraction branches over the reduced vector treated
// as a length-d sequence: stacked 1-D convolutions for short-range structure
// and multi-head self-attention for global context. The branches are merged
// by an explicit graph concat stage before the classification head.

package classifier

import (
	"fmt"
	"math/rand"

	"github.com/mujeebjan09/Human-activity-recognition/internal/nn"
)

// ModelConfig describes the hybrid architecture.
type ModelConfig struct {
	ConvFilters    []int `json:"conv_filters" mapstructure:"conv_filters"`
	KernelSize     int   `json:"kernel_size" mapstructure:"kernel_size"`
	AttentionDim   int   `json:"attention_dim" mapstructure:"attention_dim"`
	AttentionHeads int   `json:"attention_heads" mapstructure:"attention_heads"`
	HiddenUnits    int   `json:"hidden_units" mapstructure:"hidden_units"`
}

// DefaultModelConfig returns the architecture used for 125-wide reduced
// vectors.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		ConvFilters:    []int{16, 32},
		KernelSize:     3,
		AttentionDim:   8,
		AttentionHeads: 2,
		HiddenUnits:    64,
	}
}

// buildHybrid assembles the dual-branch graph for input width d and compiles
// it. Branch merging is a named concat stage so its shape can be asserted
// before any training happens.
func buildHybrid(cfg ModelConfig, d, numClasses int, rng *rand.Rand) (*nn.Model, error) {
	g := nn.NewGraph("hybrid_classifier")
	if err := g.Input("in", nn.Shape{Len: d, Ch: 1}); err != nil {
		return nil, err
	}

	// Local-pattern branch: conv -> relu -> norm -> pool, repeated.
	prev := "in"
	length, channels := d, 1
	for i, filters := range cfg.ConvFilters {
		conv := fmt.Sprintf("conv%d", i+1)
		if err := g.Stage(conv, nn.NewConv1D(conv, cfg.KernelSize, channels, filters, rng), prev); err != nil {
			return nil, err
		}
		if err := g.Stage(conv+"_act", nn.NewActivation(nn.ActReLU), conv); err != nil {
			return nil, err
		}
		if err := g.Stage(conv+"_norm", nn.NewLayerNorm(conv+"_norm", length*filters), conv+"_act"); err != nil {
			return nil, err
		}
		pool := fmt.Sprintf("pool%d", i+1)
		if err := g.Stage(pool, nn.NewMaxPool1D(pool), conv+"_norm"); err != nil {
			return nil, err
		}
		prev = pool
		length /= 2
		channels = filters
	}
	if err := g.Stage("conv_flat", nn.NewFlatten(), prev); err != nil {
		return nil, err
	}
	convWidth := length * channels

	// Global-context branch: position-wise channel lift, self-attention,
	// normalization, then average pooling over positions.
	if err := g.Stage("attn_proj", nn.NewConv1D("attn_proj", 1, 1, cfg.AttentionDim, rng), "in"); err != nil {
		return nil, err
	}
	if err := g.Stage("attn", nn.NewMultiHeadAttention("attn", cfg.AttentionDim, cfg.AttentionHeads, rng), "attn_proj"); err != nil {
		return nil, err
	}
	if err := g.Stage("attn_norm", nn.NewLayerNorm("attn_norm", d*cfg.AttentionDim), "attn"); err != nil {
		return nil, err
	}
	if err := g.Stage("attn_pool", nn.NewGlobalAvgPool(), "attn_norm"); err != nil {
		return nil, err
	}

	// Fusion and classification head.
	if err := g.Concat("merge", "conv_flat", "attn_pool"); err != nil {
		return nil, err
	}
	mergeWidth := convWidth + cfg.AttentionDim
	if err := g.Stage("fc", nn.NewDense("fc", mergeWidth, cfg.HiddenUnits, rng), "merge"); err != nil {
		return nil, err
	}
	if err := g.Stage("fc_act", nn.NewActivation(nn.ActReLU), "fc"); err != nil {
		return nil, err
	}
	if err := g.Stage("logits", nn.NewDense("logits", cfg.HiddenUnits, numClasses, rng), "fc_act"); err != nil {
		return nil, err
	}
	if err := g.Stage("probs", nn.NewSoftmax(), "logits"); err != nil {
		return nil, err
	}
	return g.Compile("probs")
}
