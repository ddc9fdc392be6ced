package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"yashubustudio/ailian/detector"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type detectOptions struct {
	file    string
	text    string
	lines   bool
	verbose bool
	json    bool
}

var detectOpts detectOptions

func runDetect(cmd *cobra.Command, _ []string) error {
	texts, err := readDetectInput(detectOpts)
	if err != nil {
		if errors.Is(err, errNoInput) {
			_ = cmd.Usage()
		}
		return err
	}

	svc, err := detector.OpenService(appConfig, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	results := svc.DetectAll(cmd.Context(), texts)
	if detectOpts.json {
		return writeJSON(out, results, detectOpts.lines)
	}
	if detectOpts.lines {
		renderResultsTable(out, results)
		return nil
	}
	res := results[0]
	printResult(out, res, svc.Thresholds())
	if detectOpts.verbose {
		renderBreakdown(out, res.Breakdown)
	}
	return nil
}

var errNoInput = errors.New("either --file or --text is required")

// readDetectInput returns the texts to score: the inline text, the whole file,
// or every non-empty line of the file.
func readDetectInput(opts detectOptions) ([]string, error) {
	if text := strings.TrimSpace(opts.text); text != "" {
		return []string{text}, nil
	}
	path := strings.TrimSpace(opts.file)
	if path == "" {
		return nil, errNoInput
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if !strings.HasPrefix(mt.String(), "text/") {
		return nil, fmt.Errorf("%s is not a text file (%s)", filepath.Base(path), mt.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")
	if !opts.lines {
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("%s is empty", filepath.Base(path))
		}
		return []string{strings.TrimSpace(content)}, nil
	}
	var texts []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%s has no non-empty lines", filepath.Base(path))
	}
	return texts, nil
}

func printResult(w io.Writer, res detector.Result, th detector.Thresholds) {
	fmt.Fprintf(w, "AI 작성 가능성: %.2f%%\n", res.FinalScore)
	fmt.Fprintf(w, "  특징 점수: %.2f / 100\n", res.FeatureScore)
	fmt.Fprintf(w, "  모델 점수: %.2f / 1\n", res.ModelScore)
	mode := "가중 평균"
	if res.Calibrated {
		mode = "보정기"
	}
	fmt.Fprintf(w, "  결합 방식: %s\n", mode)
	if res.Degraded {
		fmt.Fprintln(w, color.Gray.Sprint("  (모델을 불러오지 못해 모델 점수는 중립값입니다)"))
	}
	fmt.Fprintln(w, verdictLabel(res.Verdict, th))
	if len(res.Breakdown.Phrases) > 0 {
		fmt.Fprintf(w, "  자주 쓰이는 AI 표현: %s\n", strings.Join(res.Breakdown.Phrases, ", "))
	}
}

func verdictLabel(v detector.Verdict, th detector.Thresholds) string {
	switch v {
	case detector.VerdictAI:
		return color.Red.Sprintf("⚠ AI가 쓴 글입니다 (> %.0f)", th.High)
	case detector.VerdictHuman:
		return color.Green.Sprintf("✔ 사람이 쓴 글입니다 (< %.0f)", th.Low)
	default:
		return color.Yellow.Sprint("● 혼합 신호")
	}
}

func renderBreakdown(w io.Writer, b detector.FeatureBreakdown) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value", "Points"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"Words / sentences", fmt.Sprintf("%d / %d", b.Words, b.Sentences), ""})
	table.Append([]string{"Avg sentence length", fmt.Sprintf("%.2f", b.AvgSentenceLength), fmt.Sprintf("%.2f", b.ASLScore)})
	table.Append([]string{"Lexical diversity", fmt.Sprintf("%.3f", b.LexicalDiversity), fmt.Sprintf("%.2f", b.DiversityScore)})
	table.Append([]string{"Favourite tokens /100w", fmt.Sprintf("%.2f", b.FavoriteTokenFrequency), fmt.Sprintf("%.2f", b.FavoriteScore)})
	table.SetFooter([]string{"", "Feature score", fmt.Sprintf("%.2f", b.Score)})
	table.Render()
}

func renderResultsTable(w io.Writer, results []detector.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Text", "Final", "Feature", "Model", "Verdict"})
	table.SetAutoWrapText(false)
	for i, res := range results {
		table.Append([]string{
			fmt.Sprint(i + 1),
			detector.TruncateRunes(res.Text, 40),
			fmt.Sprintf("%.2f", res.FinalScore),
			fmt.Sprintf("%.2f", res.FeatureScore),
			fmt.Sprintf("%.2f", res.ModelScore),
			string(res.Verdict),
		})
	}
	table.Render()
}

type jsonResult struct {
	Text string `json:"text"`
	detector.Result
}

func writeJSON(w io.Writer, results []detector.Result, many bool) error {
	out := make([]jsonResult, len(results))
	for i, res := range results {
		out[i] = jsonResult{Text: res.Text, Result: res}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if many {
		return enc.Encode(out)
	}
	return enc.Encode(out[0])
}
