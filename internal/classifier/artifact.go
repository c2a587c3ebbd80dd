package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/utils"
)

const (
	KindTfidf              = "tfidf"
	KindCount              = "count"
	KindMultinomialNB      = "multinomial_nb"
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
	KindRandomForest       = "random_forest"
	KindNearestCentroid    = "nearest_centroid"
)

// Labels are class labels. Exported artifacts carry them as JSON strings or
// numbers; numbers are kept in their shortest decimal form ("0", "1", "2").
type Labels []string

func (l *Labels) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("classes must be a list: %w", err)
	}
	out := make(Labels, 0, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var f float64
		if err := json.Unmarshal(r, &f); err != nil {
			return fmt.Errorf("class %d is neither a string nor a number", i)
		}
		out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
	}
	*l = out
	return nil
}

type envelope struct {
	Kind      string `json:"kind"`
	Classes   Labels `json:"classes"`
	NFeatures int    `json:"n_features"`
}

// Model is a fitted classifier.
type Model interface {
	Classes() Labels
	PredictProba(x Features) ([]float64, error)
}

// Predict returns the most probable class and its probability.
func Predict(m Model, x Features) (string, float64, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return "", 0, err
	}
	best := utils.ArgMax(proba)
	if best < 0 || best >= len(m.Classes()) {
		return "", 0, fmt.Errorf("model returned %d probabilities for %d classes", len(proba), len(m.Classes()))
	}
	return m.Classes()[best], proba[best], nil
}

// DecodeModel parses a classifier artifact.
func DecodeModel(raw []byte) (Model, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	if len(env.Classes) == 0 {
		return nil, fmt.Errorf("artifact %q has no classes", env.Kind)
	}

	var (
		m   Model
		err error
	)
	switch env.Kind {
	case KindMultinomialNB:
		m, err = decodeNaiveBayes(raw, env)
	case KindLogisticRegression:
		m, err = decodeLogistic(raw, env)
	case KindDecisionTree:
		m, err = decodeDecisionTree(raw, env)
	case KindRandomForest:
		m, err = decodeRandomForest(raw, env)
	case KindNearestCentroid:
		m, err = decodeCentroid(raw, env)
	case "":
		return nil, fmt.Errorf("artifact has no kind")
	default:
		return nil, fmt.Errorf("unsupported model kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", env.Kind, err)
	}
	return m, nil
}

func checkDim(x Features, want int) error {
	if want > 0 && x.Dim() != want {
		return fmt.Errorf("expected %d features, got %d", want, x.Dim())
	}
	return nil
}
