package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

type stubConditions struct {
	code     int
	features map[string][]string
	missing  map[string]bool
	got      []float64
}

func (s *stubConditions) CheckCondition(condition string) error {
	if condition == "unknown_condition" {
		return classifier.ErrUnknownCondition
	}
	if s.missing[condition] {
		return fmt.Errorf("%w: %s", classifier.ErrModelUnavailable, condition)
	}
	return nil
}

func (s *stubConditions) PredictCondition(_ context.Context, condition string, features []float64) (int, error) {
	if err := s.CheckCondition(condition); err != nil {
		return 0, err
	}
	s.got = features
	return s.code, nil
}

func (s *stubConditions) FeatureNames(condition string) []string {
	return s.features[condition]
}

func TestAssessFormatsSeverityAndAdvice(t *testing.T) {
	models := &stubConditions{code: 2}
	recs := stubRecs{pac: map[string][]string{"diabetes": {"Cut sugar", "See a doctor"}}}
	svc := NewPACService(models, recs, logger.NewNop())

	got, err := svc.Assess(context.Background(), "diabetes", []byte(`{"glucose": 180, "bmi": "31.5", "age": 50}`))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	want := "❌ Your condition seems bad.\n💡 Recommendations:\n- Cut sugar\n- See a doctor"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !reflect.DeepEqual(models.got, []float64{180, 31.5, 50}) {
		t.Fatalf("features = %v", models.got)
	}
}

func TestAssessUsesDeclaredFeatureOrder(t *testing.T) {
	models := &stubConditions{features: map[string][]string{"heart": {"age", "chol"}}}
	svc := NewPACService(models, stubRecs{}, logger.NewNop())

	if _, err := svc.Assess(context.Background(), "heart", []byte(`{"chol": 240, "extra": 1, "age": 61}`)); err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !reflect.DeepEqual(models.got, []float64{61, 240}) {
		t.Fatalf("features = %v", models.got)
	}

	_, err := svc.Assess(context.Background(), "heart", []byte(`{"chol": 240}`))
	if !errors.Is(err, ErrInvalidForm) || FailureReply(err) != PACErrorReply {
		t.Fatalf("missing field: got %v", err)
	}
}

func TestAssessFailures(t *testing.T) {
	models := &stubConditions{missing: map[string]bool{"liver": true}}
	svc := NewPACService(models, stubRecs{}, logger.NewNop())
	ctx := context.Background()

	cases := []struct {
		condition string
		form      string
		want      string
	}{
		{"unknown_condition", `{"a": 1}`, ModelNotFoundReply},
		{"liver", `{"a": 1}`, ModelNotFoundReply},
		{"liver", `not json`, ModelNotFoundReply},
		{"kidney", `not json`, PACErrorReply},
		{"kidney", `{}`, PACErrorReply},
		{"kidney", `[1, 2]`, PACErrorReply},
		{"kidney", `{"a": true}`, PACErrorReply},
		{"kidney", `{"a": null}`, PACErrorReply},
		{"kidney", `{"a": "abc"}`, PACErrorReply},
		{"kidney", `{"a": "NaN"}`, PACErrorReply},
		{"kidney", `{"a": 1} {"b": 2}`, PACErrorReply},
	}
	for _, tc := range cases {
		_, err := svc.Assess(ctx, tc.condition, []byte(tc.form))
		if err == nil {
			t.Errorf("%s %s: expected error", tc.condition, tc.form)
			continue
		}
		if got := FailureReply(err); got != tc.want {
			t.Errorf("%s %s: reply %q, want %q", tc.condition, tc.form, got, tc.want)
		}
	}
}

func TestSeverityText(t *testing.T) {
	cases := map[int]string{0: SeverityGood, 1: SeverityAverage, 2: SeverityBad, 3: SeverityBad, 7: SeverityBad, -1: SeverityBad}
	for code, want := range cases {
		if got := SeverityText(code); got != want {
			t.Errorf("SeverityText(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestParseFeaturesKeepsFirstPositionOfRepeatedField(t *testing.T) {
	got, err := ParseFeatures([]byte(`{"a": 1, "b": 2, "a": 3}`), nil)
	if err != nil {
		t.Fatalf("ParseFeatures: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{3, 2}) {
		t.Fatalf("got %v", got)
	}
}
