package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"yashubustudio/ailian/detector"
)

var datasetExtensions = []string{".csv", ".tsv", ".xlsx"}

func verdictText(v detector.Verdict) string {
	switch v {
	case detector.VerdictAI:
		return "AI가 쓴 글입니다"
	case detector.VerdictHuman:
		return "사람이 쓴 글입니다"
	default:
		return "혼합 신호"
	}
}

func scoreSummary(res detector.Result) string {
	mode := "가중 평균"
	if res.Calibrated {
		mode = "보정기"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "AI 작성 가능성: %.2f%%\n", res.FinalScore)
	fmt.Fprintf(&b, "특징 점수: %.2f / 100\n", res.FeatureScore)
	fmt.Fprintf(&b, "모델 점수: %.2f / 1\n", res.ModelScore)
	fmt.Fprintf(&b, "결합 방식: %s", mode)
	if res.Degraded {
		b.WriteString(" (모델 없음)")
	}
	return b.String()
}

func breakdownText(bd detector.FeatureBreakdown) string {
	if bd.Neutral {
		return "문장을 찾지 못해 중립 점수를 사용했습니다"
	}
	return fmt.Sprintf("단어 %d / 문장 %d\n평균 문장 길이 %.2f (%.2f점)\n어휘 다양성 %.3f (%.2f점)\nAI 선호 토큰 %.2f/100단어 (%.2f점)",
		bd.Words, bd.Sentences,
		bd.AvgSentenceLength, bd.ASLScore,
		bd.LexicalDiversity, bd.DiversityScore,
		bd.FavoriteTokenFrequency, bd.FavoriteScore)
}

func phrasesText(phrases []string) string {
	if len(phrases) == 0 {
		return "발견된 AI 표현 없음"
	}
	return "AI 표현: " + strings.Join(phrases, ", ")
}

func trainingSummary(res detector.TrainingResult, path string) string {
	msg := fmt.Sprintf("학습 %d건 / 평가 %d건, 정확도 %.2f", res.TrainSize, res.TestSize, res.Report.Accuracy)
	if res.Skipped > 0 {
		msg += fmt.Sprintf(", 빈 텍스트 %d건 제외", res.Skipped)
	}
	return msg + "\n저장: " + filepath.Base(path)
}

func isDatasetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range datasetExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
