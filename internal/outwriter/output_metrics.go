package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/schema"
)

// statusMeanings documents every per-series status in output order.
var statusMeanings = map[schema.SeriesStatus]string{
	schema.StatusOK:                  "scored; MASE is finite",
	schema.StatusInsufficientHistory: "training partition shorter than the model floor",
	schema.StatusAllNaN:              "every y value was missing",
	schema.StatusForecastFailed:      "the estimator errored or panicked for this series",
	schema.StatusForecastMissing:     "a test timestamp had no forecast row",
	schema.StatusForecastInvalid:     "the forecast contained NaN or Inf",
	schema.StatusScaleDegenerate:     "in-sample naive error is zero or undefined",
}

// WriteDefinitions displays the MASE definition, the status vocabulary and
// the estimators available per backend family. It does not read any data.
func WriteDefinitions(w io.Writer, estimatorsByFamily map[schema.BackendFamily][]string) error {
	var b strings.Builder
	b.WriteString("📏 finbench Metrics\n")
	b.WriteString("===================\n\n")
	b.WriteString("MASE = mean(|y - y_hat|) / scale\n")
	b.WriteString("   scale = mean(|y[t] - y[t-m]|) over the training partition (lag m = seasonality)\n")
	b.WriteString("   falls back to lag 1 when the series is no longer than m or the seasonal scale is zero\n\n")
	fmt.Fprintf(&b, "Labels: Strong < %.1f <= Fair < %.1f <= Weak\n\n", contract.StrongMASE, contract.WeakMASE)

	b.WriteString("🏷️  Series statuses\n")
	for _, s := range statusOrder {
		fmt.Fprintf(&b, "   %-22s %s\n", s, statusMeanings[s])
	}
	b.WriteString("\n")

	b.WriteString("🧮 Estimators\n")
	families := []schema.BackendFamily{schema.LocalStatistical, schema.GlobalNeural, schema.PanelStatistical}
	for _, f := range families {
		fmt.Fprintf(&b, "   %-18s %s\n", f, strings.Join(estimatorsByFamily[f], ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
