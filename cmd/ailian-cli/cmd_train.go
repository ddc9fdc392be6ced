package main

import (
	"fmt"
	"strings"

	"yashubustudio/ailian/detector"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

type trainOptions struct {
	dataset     string
	out         string
	textColumn  string
	labelColumn string
}

var trainOpts trainOptions

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg := appConfig.Clone()
	if out := strings.TrimSpace(trainOpts.out); out != "" {
		cfg.Calibrator.Path = out
	}

	svc, err := detector.OpenService(cfg, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()
	if svc.Degraded() {
		logger.Warn("Training without a classifier, the model feature is constant")
	}

	out := cmd.OutOrStdout()
	res, err := svc.Train(cmd.Context(), strings.TrimSpace(trainOpts.dataset), detector.DatasetOptions{
		TextColumn:  trainOpts.textColumn,
		LabelColumn: trainOpts.labelColumn,
	}, out)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "학습 %d건 / 평가 %d건", res.TrainSize, res.TestSize)
	if res.Skipped > 0 {
		fmt.Fprintf(out, " (빈 텍스트 %d건 제외)", res.Skipped)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, color.Green.Sprintf("✔ 보정기를 저장했습니다: %s", svc.Store().Path()))
	return nil
}
