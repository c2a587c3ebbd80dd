package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrUnknownCondition = errors.New("unknown condition")
)

const (
	DefaultChatModel  = "chatbot_model.json"
	DefaultVectorizer = "vectorizer.json"

	// ChatSlot names the chat classifier in Status.
	ChatSlot = "chat"

	loadConcurrency = 4
)

var conditionNames = []string{
	"normal", "diabetes", "heart", "kidney", "liver",
	"anemia", "hypertension", "thyroid", "pcos",
}

// Conditions lists the condition keys the service knows about, in display order.
func Conditions() []string {
	out := make([]string, len(conditionNames))
	copy(out, conditionNames)
	return out
}

// DefaultConditionModel is the artifact path of a condition model relative to the model dir.
func DefaultConditionModel(condition string) string {
	return "pkl_models/" + condition + "_model.json"
}

type ChatPrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ChatPredictor answers a free-text message with a disease label.
type ChatPredictor interface {
	PredictChat(ctx context.Context, message string) (ChatPrediction, error)
}

// TextClassifier is the local chat predictor: a vectorizer feeding a fitted model.
type TextClassifier struct {
	vectorizer *Vectorizer
	model      Model
}

func NewTextClassifier(v *Vectorizer, m Model) *TextClassifier {
	return &TextClassifier{vectorizer: v, model: m}
}

func (c *TextClassifier) PredictChat(_ context.Context, message string) (ChatPrediction, error) {
	label, conf, err := Predict(c.model, c.vectorizer.Transform(message))
	if err != nil {
		return ChatPrediction{}, err
	}
	return ChatPrediction{Label: label, Confidence: conf}, nil
}

// ConditionModel is a loaded condition classifier and the names of its
// input features, in column order. Features may be empty.
type ConditionModel struct {
	Model    Model
	Features []string
}

// Registry holds every loaded model. It is never mutated after construction.
type Registry struct {
	chat       ChatPredictor
	conditions map[string]ConditionModel
}

// NewRegistry builds a registry from already loaded models. A nil chat
// predictor or a missing condition leaves that slot unavailable; entries for
// unknown conditions are dropped.
func NewRegistry(chat ChatPredictor, conditions map[string]ConditionModel) *Registry {
	r := &Registry{chat: chat, conditions: make(map[string]ConditionModel, len(conditionNames))}
	for _, name := range conditionNames {
		if cm, ok := conditions[name]; ok && cm.Model != nil {
			cm.Features = append([]string(nil), cm.Features...)
			r.conditions[name] = cm
		}
	}
	return r
}

func (r *Registry) PredictChat(ctx context.Context, message string) (ChatPrediction, error) {
	if r.chat == nil {
		return ChatPrediction{}, ErrModelUnavailable
	}
	return r.chat.PredictChat(ctx, message)
}

// CheckCondition reports whether a condition model can serve predictions.
func (r *Registry) CheckCondition(condition string) error {
	if !knownCondition(condition) {
		return fmt.Errorf("%w: %q", ErrUnknownCondition, condition)
	}
	if _, ok := r.conditions[condition]; !ok {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, condition)
	}
	return nil
}

// PredictCondition returns the predicted class of a condition model as an
// integer severity code.
func (r *Registry) PredictCondition(_ context.Context, condition string, features []float64) (int, error) {
	if err := r.CheckCondition(condition); err != nil {
		return 0, err
	}
	cm := r.conditions[condition]
	label, _, err := Predict(cm.Model, Dense(features))
	if err != nil {
		return 0, fmt.Errorf("predict %s: %w", condition, err)
	}
	return severityCode(label)
}

// FeatureNames returns the declared input order for a condition, or nil.
func (r *Registry) FeatureNames(condition string) []string {
	cm, ok := r.conditions[condition]
	if !ok || len(cm.Features) == 0 {
		return nil
	}
	return append([]string(nil), cm.Features...)
}

type SlotStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Status reports the chat slot followed by every condition slot.
func (r *Registry) Status() []SlotStatus {
	out := make([]SlotStatus, 0, len(conditionNames)+1)
	out = append(out, SlotStatus{Name: ChatSlot, Available: r.chat != nil})
	for _, name := range conditionNames {
		_, ok := r.conditions[name]
		out = append(out, SlotStatus{Name: name, Available: ok})
	}
	return out
}

func knownCondition(name string) bool {
	for _, c := range conditionNames {
		if c == name {
			return true
		}
	}
	return false
}

func severityCode(label string) (int, error) {
	if code, err := strconv.Atoi(label); err == nil {
		return code, nil
	}
	f, err := strconv.ParseFloat(label, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("class %q is not a severity code", label)
	}
	return int(f), nil
}

// LoadOptions configures Load.
type LoadOptions struct {
	ModelDir string
	Manifest *Manifest
	Reader   ArtifactReader
	// Chat replaces the local vectorizer and chat model when set.
	Chat ChatPredictor
	// RemoteChat skips the local chat artifacts even when Chat is nil, which
	// leaves the chat slot unavailable.
	RemoteChat bool
}

// LoadManifest reads and parses a manifest. An empty path yields an empty manifest.
func LoadManifest(ctx context.Context, reader ArtifactReader, path string) (*Manifest, error) {
	if path == "" {
		return &Manifest{}, nil
	}
	raw, err := reader.ReadArtifact(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(raw)
}

// Load reads every artifact in parallel. A slot whose artifact cannot be read
// or decoded is logged and left unavailable; Load itself never fails.
func Load(ctx context.Context, opts LoadOptions, log *logger.Logger) *Registry {
	manifest := opts.Manifest
	if manifest == nil {
		manifest = &Manifest{}
	}
	for name := range manifest.Conditions {
		if !knownCondition(name) {
			log.Warn("Ignoring manifest entry for unknown condition", "condition", name)
		}
	}

	start := time.Now()
	var (
		vectorizer *Vectorizer
		chatModel  Model
		condModels = make([]Model, len(conditionNames))
	)

	var g errgroup.Group
	g.SetLimit(loadConcurrency)

	if opts.Chat == nil && !opts.RemoteChat {
		vecPath := resolve(opts.ModelDir, manifest.Chat.Vectorizer, DefaultVectorizer)
		g.Go(func() error {
			raw, err := readArtifact(ctx, opts.Reader, vecPath)
			if err == nil {
				vectorizer, err = DecodeVectorizer(raw)
			}
			if err != nil {
				log.Error("Failed to load vectorizer", "path", vecPath, "error", err)
			}
			return nil
		})

		chatPath := resolve(opts.ModelDir, manifest.Chat.Model, DefaultChatModel)
		g.Go(func() error {
			chatModel = loadModel(ctx, opts.Reader, chatPath, ChatSlot, log)
			return nil
		})
	}

	for i, name := range conditionNames {
		p := resolve(opts.ModelDir, manifest.Conditions[name].Model, DefaultConditionModel(name))
		g.Go(func() error {
			condModels[i] = loadModel(ctx, opts.Reader, p, name, log)
			return nil
		})
	}
	_ = g.Wait()

	chat := opts.Chat
	if chat == nil && vectorizer != nil && chatModel != nil {
		chat = NewTextClassifier(vectorizer, chatModel)
	}

	conds := make(map[string]ConditionModel, len(conditionNames))
	for i, name := range conditionNames {
		if condModels[i] == nil {
			continue
		}
		features := manifest.Conditions[name].Features
		if err := checkFeatureCount(condModels[i], len(features)); err != nil {
			log.Error("Condition model does not match its manifest features", "condition", name, "error", err)
			continue
		}
		conds[name] = ConditionModel{Model: condModels[i], Features: features}
	}

	r := NewRegistry(chat, conds)
	available := 0
	for _, s := range r.Status() {
		if s.Available {
			available++
		}
	}
	log.Info("Model registry loaded",
		"available", available,
		"slots", len(conditionNames)+1,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return r
}

func loadModel(ctx context.Context, reader ArtifactReader, path, slot string, log *logger.Logger) Model {
	raw, err := readArtifact(ctx, reader, path)
	if err != nil {
		log.Error("Failed to read model artifact", "slot", slot, "path", path, "error", err)
		return nil
	}
	m, err := DecodeModel(raw)
	if err != nil {
		log.Error("Failed to decode model artifact", "slot", slot, "path", path, "error", err)
		return nil
	}
	log.Debug("Loaded model", "slot", slot, "path", path)
	return m
}

func readArtifact(ctx context.Context, reader ArtifactReader, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reader.ReadArtifact(ctx, path)
}

// checkFeatureCount rejects a model whose declared input width disagrees with
// the manifest's feature list. Models without a known width pass.
func checkFeatureCount(m Model, declared int) error {
	if declared == 0 {
		return nil
	}
	var width int
	switch mm := m.(type) {
	case *NaiveBayes:
		width = len(mm.featureLogProb[0])
	case *Logistic:
		width = len(mm.coef[0])
	case *Centroid:
		width = len(mm.centroids[0])
	case *DecisionTree:
		width = mm.nFeatures
	case *RandomForest:
		width = mm.nFeatures
	}
	if width > 0 && width != declared {
		return fmt.Errorf("model expects %d features, manifest lists %d", width, declared)
	}
	return nil
}
