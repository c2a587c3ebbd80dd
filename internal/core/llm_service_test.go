package core

import (
	"strings"
	"testing"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

func TestParsePrediction(t *testing.T) {
	s := &LLMService{labels: []string{"Diabetes", "Flu"}, log: logger.NewNop()}

	pred, err := s.parsePrediction("```json\n{\"label\": \"diabetes\", \"confidence\": 0.9}\n```")
	if err != nil {
		t.Fatalf("parsePrediction: %v", err)
	}
	if pred.Label != "Diabetes" || pred.Confidence != 0.9 {
		t.Fatalf("unexpected prediction %+v", pred)
	}

	for _, reply := range []string{
		`not json`,
		`{"label": "", "confidence": 0.5}`,
		`{"label": "flu", "confidence": 1.5}`,
		`{"label": "measles", "confidence": 0.5}`,
	} {
		if _, err := s.parsePrediction(reply); err == nil {
			t.Errorf("%s: expected error", reply)
		}
	}
}

func TestParsePredictionWithoutLabelList(t *testing.T) {
	s := &LLMService{log: logger.NewNop()}
	pred, err := s.parsePrediction(`{"label": "measles", "confidence": 0.4}`)
	if err != nil || pred.Label != "measles" {
		t.Fatalf("got %+v, %v", pred, err)
	}
}

func TestSystemInstructionListsLabels(t *testing.T) {
	s := &LLMService{labels: []string{"Diabetes", "Flu"}}
	if !strings.Contains(s.systemInstruction(), "Diabetes, Flu") {
		t.Fatalf("labels missing from instruction: %s", s.systemInstruction())
	}
	if (&LLMService{}).systemInstruction() != chatSystemInstruction {
		t.Fatal("expected the base instruction without labels")
	}
}
