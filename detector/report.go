package detector

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// ClassMetrics are the per-class scores of a ClassificationReport.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport summarizes calibrator quality on a held-out split.
type ClassificationReport struct {
	Human       ClassMetrics `json:"human"`
	AI          ClassMetrics `json:"ai"`
	Accuracy    float64      `json:"accuracy"`
	MacroAvg    ClassMetrics `json:"macroAvg"`
	WeightedAvg ClassMetrics `json:"weightedAvg"`
	Total       int          `json:"total"`
}

// Evaluate scores cal on (x, y). Metrics with a zero denominator are 0.
func Evaluate(cal *LogisticCalibrator, x []FeatureVector, y []Label) ClassificationReport {
	var tp, fp, tn, fn int
	for i, v := range x {
		pred := cal.Predict(v)
		switch {
		case pred == LabelAI && y[i] == LabelAI:
			tp++
		case pred == LabelAI && y[i] == LabelHuman:
			fp++
		case pred == LabelHuman && y[i] == LabelHuman:
			tn++
		default:
			fn++
		}
	}
	report := ClassificationReport{
		AI:    classMetrics(tp, fp, fn),
		Human: classMetrics(tn, fn, fp),
		Total: len(x),
	}
	if report.Total > 0 {
		report.Accuracy = float64(tp+tn) / float64(report.Total)
	}
	report.MacroAvg = ClassMetrics{
		Precision: (report.Human.Precision + report.AI.Precision) / 2,
		Recall:    (report.Human.Recall + report.AI.Recall) / 2,
		F1:        (report.Human.F1 + report.AI.F1) / 2,
		Support:   report.Total,
	}
	report.WeightedAvg = ClassMetrics{Support: report.Total}
	if report.Total > 0 {
		wh := float64(report.Human.Support) / float64(report.Total)
		wa := float64(report.AI.Support) / float64(report.Total)
		report.WeightedAvg.Precision = wh*report.Human.Precision + wa*report.AI.Precision
		report.WeightedAvg.Recall = wh*report.Human.Recall + wa*report.AI.Recall
		report.WeightedAvg.F1 = wh*report.Human.F1 + wa*report.AI.F1
	}
	return report
}

func classMetrics(tp, fp, fn int) ClassMetrics {
	m := ClassMetrics{Support: tp + fn}
	m.Precision = ratio(tp, tp+fp)
	m.Recall = ratio(tp, tp+fn)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Render writes the report as a table.
func (r ClassificationReport) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "precision", "recall", "f1-score", "support"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.Append(metricsRow(LabelHuman.String(), r.Human))
	table.Append(metricsRow(LabelAI.String(), r.AI))
	table.Append([]string{"accuracy", "", "", fmt.Sprintf("%.2f", r.Accuracy), fmt.Sprint(r.Total)})
	table.Append(metricsRow("macro avg", r.MacroAvg))
	table.Append(metricsRow("weighted avg", r.WeightedAvg))
	table.Render()
}

func metricsRow(name string, m ClassMetrics) []string {
	return []string{
		name,
		fmt.Sprintf("%.2f", m.Precision),
		fmt.Sprintf("%.2f", m.Recall),
		fmt.Sprintf("%.2f", m.F1),
		fmt.Sprint(m.Support),
	}
}
