package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

var ortInitMu sync.Mutex

// OrtClassifier runs a sequence classification model exported to ONNX with a
// HuggingFace tokenizer.json.
type OrtClassifier struct {
	mu      sync.RWMutex
	cfg     ModelConfig
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
}

// NewOrtClassifier initializes the ONNX Runtime environment, the tokenizer and
// the inference session.
func NewOrtClassifier(cfg ModelConfig) (*OrtClassifier, error) {
	if cfg.ModelID == "" && cfg.ModelPath != "" {
		cfg.ModelID = filepath.Base(filepath.Dir(cfg.ModelPath)) + "/" + filepath.Base(cfg.ModelPath)
	}
	if len(cfg.Labels) < 2 {
		return nil, errors.New("at least two labels are required")
	}
	if err := initOrt(cfg.OrtDLL); err != nil {
		return nil, err
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	if cfg.MaxSeqLen > 0 {
		tk.WithTruncation(&tokenizer.TruncationParams{
			MaxLength: cfg.MaxSeqLen,
			Strategy:  tokenizer.LongestFirst,
		})
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, cfg.InputNames, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &OrtClassifier{cfg: cfg, tk: tk, session: session}, nil
}

func initOrt(lib string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnxruntime: %w", err)
	}
	return nil
}

// ModelID returns the identifier used for cache keys.
func (o *OrtClassifier) ModelID() string {
	return o.cfg.ModelID
}

// Close releases the session. The ORT environment stays alive for other
// classifiers in the process.
func (o *OrtClassifier) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

// Classify returns the most probable label and its softmax probability.
func (o *OrtClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.session == nil {
		return Prediction{}, errors.New("classifier is closed")
	}

	enc, err := o.tk.EncodeSingle(text, true)
	if err != nil {
		return Prediction{}, fmt.Errorf("tokenize: %w", err)
	}
	seqLen := int64(len(enc.Ids))
	if seqLen == 0 {
		return Prediction{}, errors.New("tokenizer produced no ids")
	}
	shape := ort.NewShape(1, seqLen)

	inputs := make([]ort.Value, 0, len(o.cfg.InputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range o.cfg.InputNames {
		var data []int64
		switch name {
		case "input_ids":
			data = toInt64(enc.Ids)
		case "attention_mask":
			data = toInt64(enc.AttentionMask)
		case "token_type_ids":
			data = toInt64(enc.TypeIds)
		default:
			return Prediction{}, fmt.Errorf("unsupported model input %q", name)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return Prediction{}, fmt.Errorf("create %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(o.cfg.Labels))))
	if err != nil {
		return Prediction{}, fmt.Errorf("create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := o.session.Run(inputs, []ort.Value{out}); err != nil {
		return Prediction{}, fmt.Errorf("run session: %w", err)
	}
	probs := softmax(out.GetData())
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return Prediction{Label: o.cfg.Labels[best], Score: probs[best]}, nil
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	peak := float64(slices.Max(logits))
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
