// =============================
// Evaluation Reporting
// =============================
// Scalar metrics and text rendering consumed by the CLI. Macro averages
// weight every class equally regardless of support.

package report

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/crossval"
)

// Metrics are the scalar summary of a confusion matrix.
type Metrics struct {
	Accuracy       float64 `json:"accuracy"`
	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`
	MacroF1        float64 `json:"macro_f1"`
}

// PerClass carries one class's diagnostics.
type PerClass struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// FromConfusion computes scalar and per-class metrics.
func FromConfusion(cm *crossval.ConfusionMatrix) (Metrics, []PerClass) {
	classes := cm.Classes()
	n := len(classes)
	perClass := make([]PerClass, n)

	correct := 0
	for i := 0; i < n; i++ {
		correct += cm.At(i, i)
	}
	total := cm.Total()

	var sumP, sumR, sumF float64
	for i := 0; i < n; i++ {
		tp := cm.At(i, i)
		support := cm.RowSum(i)
		predicted := 0
		for t := 0; t < n; t++ {
			predicted += cm.At(t, i)
		}
		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		perClass[i] = PerClass{
			Class:     classes[i],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
		sumP += precision
		sumR += recall
		sumF += f1
	}

	m := Metrics{
		MacroPrecision: sumP / float64(n),
		MacroRecall:    sumR / float64(n),
		MacroF1:        sumF / float64(n),
	}
	if total > 0 {
		m.Accuracy = float64(correct) / float64(total)
	}
	return m, perClass
}

// FoldSpread summarizes per-fold accuracies as mean and standard deviation.
func FoldSpread(accuracies []float64) (mean, stddev float64) {
	if len(accuracies) == 0 {
		return 0, 0
	}
	return stat.Mean(accuracies, nil), stat.StdDev(accuracies, nil)
}

// Render formats the full evaluation report as text.
func Render(cm *crossval.ConfusionMatrix, foldAccuracies []float64) string {
	metrics, perClass := FromConfusion(cm)
	var b strings.Builder

	b.WriteString("=== Cross-Validation Report ===\n")
	fmt.Fprintf(&b, "Accuracy:        %.4f\n", metrics.Accuracy)
	fmt.Fprintf(&b, "Macro Precision: %.4f\n", metrics.MacroPrecision)
	fmt.Fprintf(&b, "Macro Recall:    %.4f\n", metrics.MacroRecall)
	fmt.Fprintf(&b, "Macro F1:        %.4f\n", metrics.MacroF1)
	if len(foldAccuracies) > 0 {
		mean, stddev := FoldSpread(foldAccuracies)
		fmt.Fprintf(&b, "Fold accuracy:   %.4f ± %.4f over %d folds\n", mean, stddev, len(foldAccuracies))
	}

	b.WriteString("\nPer-class metrics:\n")
	for _, pc := range perClass {
		fmt.Fprintf(&b, "  %-22s precision %.4f  recall %.4f  f1 %.4f  support %d\n",
			pc.Class, pc.Precision, pc.Recall, pc.F1, pc.Support)
	}

	b.WriteString("\nConfusion matrix (rows = true class):\n")
	classes := cm.Classes()
	width := 0
	for _, c := range classes {
		if len(c) > width {
			width = len(c)
		}
	}
	for i, c := range classes {
		fmt.Fprintf(&b, "  %-*s", width+2, c)
		for j := range classes {
			fmt.Fprintf(&b, " %6d", cm.At(i, j))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nRow-normalized:\n")
	normalized := cm.Normalized()
	for i, c := range classes {
		fmt.Fprintf(&b, "  %-*s", width+2, c)
		for j := range classes {
			fmt.Fprintf(&b, " %6.3f", normalized[i][j])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
