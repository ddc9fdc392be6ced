package detector_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"yashubustudio/ailian/detector"
	"yashubustudio/ailian/mocks"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func defaultModelConfig() detector.ModelConfig {
	var cfg detector.Config
	cfg.ApplyDefaults()
	return cfg.Model
}

func TestModelScorer_DegradedIsNeutral(t *testing.T) {
	req := require.New(t)
	scorer := detector.NewModelScorer(nil, defaultModelConfig(), nil, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.True(scorer.Degraded())
	req.Empty(scorer.ModelID())
	req.Equal(0.5, scorer.Score(context.Background(), "아무 글이나"))
	req.Equal(0.5, scorer.Score(context.Background(), ""))
}

func TestModelScorer_LabelPolarity(t *testing.T) {
	tests := []struct {
		name string
		pred detector.Prediction
		want float64
	}{
		{name: "ai label", pred: detector.Prediction{Label: "AI", Score: 0.8}, want: 0.8},
		{name: "positive label", pred: detector.Prediction{Label: "positive", Score: 0.9}, want: 0.9},
		{name: "fake label", pred: detector.Prediction{Label: "Fake", Score: 0.6}, want: 0.6},
		{name: "human label", pred: detector.Prediction{Label: "HUMAN", Score: 0.8}, want: 0.2},
		{name: "negative label", pred: detector.Prediction{Label: "NEGATIVE", Score: 0.7}, want: 0.3},
		{name: "confidence clamped", pred: detector.Prediction{Label: "AI", Score: 1.4}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			classifier := mocks.NewMockClassifier(ctrl)
			classifier.EXPECT().ModelID().Return("mock").AnyTimes()
			classifier.EXPECT().Classify(gomock.Any(), "본문").Return(tt.pred, nil)

			scorer := detector.NewModelScorer(classifier, defaultModelConfig(), nil, logs.GetLoggerFromLevel(slog.LevelDebug))
			req.False(scorer.Degraded())
			req.InDelta(tt.want, scorer.Score(context.Background(), "  본문  "), 1e-12)
		})
	}
}

func TestModelScorer_FailuresAreNeutral(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	classifier.EXPECT().ModelID().Return("mock").AnyTimes()
	gomock.InOrder(
		classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(detector.Prediction{}, errors.New("session closed")),
		classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(detector.Prediction{Label: "AI", Score: math.NaN()}, nil),
		classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, string) (detector.Prediction, error) {
				panic("onnx crashed")
			}),
	)

	scorer := detector.NewModelScorer(classifier, defaultModelConfig(), nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	for range 3 {
		req.Equal(detector.NeutralModelScore, scorer.Score(context.Background(), "본문"))
	}
}

func TestModelScorer_TruncatesInput(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	classifier.EXPECT().ModelID().Return("mock").AnyTimes()

	var seen string
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, text string) (detector.Prediction, error) {
			seen = text
			return detector.Prediction{Label: "AI", Score: 0.7}, nil
		})

	scorer := detector.NewModelScorer(classifier, defaultModelConfig(), nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	scorer.Score(context.Background(), strings.Repeat("가", 3000))
	req.Equal(detector.DefaultMaxChars, utf8.RuneCountInString(seen))
}

func TestModelScorer_UsesCache(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING))
	req.NoError(err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	cache := detector.NewBadgerScoreCache(db, log)
	defer cache.Close()

	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	classifier.EXPECT().ModelID().Return("mock").AnyTimes()
	classifier.EXPECT().Classify(gomock.Any(), "캐시될 글").Return(detector.Prediction{Label: "LABEL_HUMAN", Score: 0.75}, nil).Times(1)

	scorer := detector.NewModelScorer(classifier, defaultModelConfig(), cache, log)
	req.InDelta(0.25, scorer.Score(context.Background(), "캐시될 글"), 1e-12)
	req.InDelta(0.25, scorer.Score(context.Background(), "캐시될 글"), 1e-12)

	// A fresh wrapper over the same database reads the persisted value.
	reopened := detector.NewBadgerScoreCache(db, log)
	v, ok := reopened.Get(detector.ScoreCacheKey("mock", "캐시될 글"))
	req.True(ok)
	req.InDelta(0.25, v, 1e-12)

	_, ok = reopened.Get(detector.ScoreCacheKey("other-model", "캐시될 글"))
	req.False(ok)
}
