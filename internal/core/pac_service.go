package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

const (
	SeverityGood    = "✅ Your condition seems good."
	SeverityAverage = "⚠️ Your condition seems average."
	SeverityBad     = "❌ Your condition seems bad."

	ModelNotFoundReply = "❌ Model not found."
	PACErrorReply      = "⚠️ Something went wrong during prediction."
)

var ErrInvalidForm = errors.New("invalid assessment form")

type ConditionPredictor interface {
	CheckCondition(condition string) error
	PredictCondition(ctx context.Context, condition string, features []float64) (int, error)
	FeatureNames(condition string) []string
}

type PACService struct {
	models ConditionPredictor
	recs   Recommender
	log    *logger.Logger
}

func NewPACService(models ConditionPredictor, recs Recommender, log *logger.Logger) *PACService {
	return &PACService{
		models: models,
		recs:   recs,
		log:    log.With("service", "PACService"),
	}
}

// Assess runs a condition model on a JSON object of numeric fields and
// describes the outcome. On error, FailureReply gives the text to show.
func (s *PACService) Assess(ctx context.Context, condition string, form []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "PACService.Assess")
	defer span.End()
	span.SetAttributes(attribute.String("pac.condition", condition))

	if err := s.models.CheckCondition(condition); err != nil {
		span.RecordError(err)
		return "", err
	}
	features, err := ParseFeatures(form, s.models.FeatureNames(condition))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	code, err := s.models.PredictCondition(ctx, condition, features)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.Int("pac.severity", code))
	s.log.Debug("Assessment complete", "condition", condition, "severity", code)
	return FormatAssessment(code, s.recs.PACRecs(condition, code)), nil
}

// FailureReply maps an Assess error to the text shown to the user.
func FailureReply(err error) string {
	if errors.Is(err, classifier.ErrUnknownCondition) || errors.Is(err, classifier.ErrModelUnavailable) {
		return ModelNotFoundReply
	}
	return PACErrorReply
}

func SeverityText(code int) string {
	switch code {
	case 0:
		return SeverityGood
	case 1:
		return SeverityAverage
	default:
		return SeverityBad
	}
}

func FormatAssessment(code int, recs []string) string {
	var b strings.Builder
	b.WriteString(SeverityText(code))
	b.WriteString("\n💡 Recommendations:")
	for _, r := range recs {
		b.WriteString("\n- ")
		b.WriteString(r)
	}
	return b.String()
}

// ParseFeatures reads a JSON object whose values are numbers or numeric
// strings. With order set, values are taken by those field names and other
// fields are ignored; otherwise they follow the object's own field order. A
// repeated field keeps its first position and its last value.
func ParseFeatures(form []byte, order []string) ([]float64, error) {
	dec := json.NewDecoder(bytes.NewReader(form))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidForm)
	}

	var keys []string
	values := make(map[string]float64)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected a field name", ErrInvalidForm)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidForm, key, err)
		}
		v, err := parseNumber(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidForm, key, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidForm)
	}

	if len(order) > 0 {
		keys = order
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidForm)
	}
	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidForm, k)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(s)
	} else if text == "" || !(text[0] == '-' || (text[0] >= '0' && text[0] <= '9')) {
		return 0, fmt.Errorf("value %s is not a number", text)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a number", text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", text)
	}
	return v, nil
}
