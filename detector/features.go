package detector

import (
	"fmt"

	"github.com/samber/lo"
)

// DefaultASLPenalty is k_asl, the points added per word of average sentence
// length above the baseline. Revisions of the heuristic used 1.3 and 2.0;
// 1.3 is the default and FeatureConfig.ASLPenalty overrides it.
const DefaultASLPenalty = 1.3

// NeutralFeatureScore is returned when the text cannot be assessed.
const NeutralFeatureScore = 50.0

// FeatureBreakdown exposes the statistics behind a FeatureScore.
type FeatureBreakdown struct {
	Words                  int      `json:"words"`
	Sentences              int      `json:"sentences"`
	UniqueWords            int      `json:"uniqueWords"`
	FavoriteTokens         int      `json:"favoriteTokens"`
	AvgSentenceLength      float64  `json:"avgSentenceLength"`
	LexicalDiversity       float64  `json:"lexicalDiversity"`
	FavoriteTokenFrequency float64  `json:"favoriteTokenFrequency"`
	ASLScore               float64  `json:"aslScore"`
	DiversityScore         float64  `json:"diversityScore"`
	FavoriteScore          float64  `json:"favoriteScore"`
	Score                  float64  `json:"score"`
	Neutral                bool     `json:"neutral"`
	Phrases                []string `json:"phrases,omitempty"`
}

// FeatureScorer computes a 0-100 AI-likelihood score from surface statistics:
// average sentence length, lexical diversity and the frequency of
// AI-favourite tokens.
type FeatureScorer struct {
	cfg       FeatureConfig
	seg       Segmenter
	favorites map[string]struct{}
	phrases   *PhraseMatcher
}

// NewFeatureScorer builds a scorer. A nil segmenter selects KoreanSegmenter.
func NewFeatureScorer(cfg FeatureConfig, seg Segmenter, vocab TokenList) (*FeatureScorer, error) {
	if seg == nil {
		seg = KoreanSegmenter{}
	}
	favorites := make(map[string]struct{}, len(vocab.Tokens))
	for _, t := range vocab.Tokens {
		favorites[t] = struct{}{}
	}
	phrases, err := NewPhraseMatcher(vocab.Phrases)
	if err != nil {
		return nil, fmt.Errorf("build phrase matcher: %w", err)
	}
	return &FeatureScorer{
		cfg:       cfg,
		seg:       seg,
		favorites: favorites,
		phrases:   phrases,
	}, nil
}

// Score returns the FeatureScore of text.
func (f *FeatureScorer) Score(text string) float64 {
	return f.compute(text).Score
}

// Explain returns the FeatureScore together with the statistics it was
// derived from and the boilerplate phrases found in text.
func (f *FeatureScorer) Explain(text string) FeatureBreakdown {
	b := f.compute(text)
	if f.phrases != nil {
		b.Phrases = f.phrases.Find(text)
	}
	return b
}

func (f *FeatureScorer) compute(text string) FeatureBreakdown {
	words := f.seg.Words(text)
	sentences := f.seg.Sentences(text)
	if len(words) == 0 || len(sentences) == 0 {
		return FeatureBreakdown{
			Words:     len(words),
			Sentences: len(sentences),
			Score:     NeutralFeatureScore,
			Neutral:   true,
		}
	}

	b := FeatureBreakdown{
		Words:       len(words),
		Sentences:   len(sentences),
		UniqueWords: len(lo.Uniq(words)),
		FavoriteTokens: lo.CountBy(words, func(w string) bool {
			_, ok := f.favorites[w]
			return ok
		}),
	}
	sentenceWords := lo.SumBy(sentences, func(s string) int {
		return len(f.seg.Words(s))
	})
	b.AvgSentenceLength = float64(sentenceWords) / float64(len(sentences))
	b.LexicalDiversity = float64(b.UniqueWords) / float64(b.Words)
	b.FavoriteTokenFrequency = float64(b.FavoriteTokens) / float64(b.Words) * 100

	scale := 1.0
	if f.cfg.DisableFavoriteTokens {
		if total := f.cfg.DiversityWeight + f.cfg.ASLCap; total > 0 {
			scale = 100 / total
		}
	}

	excess := max(b.AvgSentenceLength-f.cfg.BaselineSentenceLength, 0)
	b.ASLScore = min(excess*f.cfg.ASLPenalty*scale, f.cfg.ASLCap*scale)
	b.DiversityScore = (1 - b.LexicalDiversity) * f.cfg.DiversityWeight * scale
	if !f.cfg.DisableFavoriteTokens {
		b.FavoriteScore = min(b.FavoriteTokenFrequency*f.cfg.FavoriteTokenWeight, f.cfg.FavoriteTokenCap)
	}
	b.Score = clamp100(b.ASLScore + b.DiversityScore + b.FavoriteScore)
	return b
}
