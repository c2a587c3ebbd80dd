package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

const (
	defaultChatModelName = "gemini-1.5-flash-latest"

	chatSystemInstruction = "You classify short descriptions of symptoms into the single most likely disease. " +
		"Reply with a JSON object with the fields \"label\" (the disease name) and \"confidence\" (a number between 0 and 1). " +
		"Do not add any other text."
)

// LLMService predicts chat labels with a Gemini model.
type LLMService struct {
	client    *genai.Client
	modelName string
	labels    []string
	log       *logger.Logger
}

// NewLLMService creates a Gemini client. When labels is non-empty the model
// must answer with one of them.
func NewLLMService(ctx context.Context, apiKey, modelName string, labels []string, log *logger.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultChatModelName
	}
	return &LLMService{
		client:    client,
		modelName: modelName,
		labels:    labels,
		log:       log.With("service", "LLMService"),
	}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.log.Warn("Error closing GenAI client", "error", err)
		} else {
			s.log.Info("GenAI client closed")
		}
	}
}

func (s *LLMService) PredictChat(ctx context.Context, message string) (classifier.ChatPrediction, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(s.systemInstruction())},
	}
	temp := float32(0)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	resp, err := model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return classifier.ChatPrediction{}, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return classifier.ChatPrediction{}, fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return s.parsePrediction(text.String())
}

func (s *LLMService) systemInstruction() string {
	if len(s.labels) == 0 {
		return chatSystemInstruction
	}
	return chatSystemInstruction + " The label must be one of: " + strings.Join(s.labels, ", ") + "."
}

func (s *LLMService) parsePrediction(text string) (classifier.ChatPrediction, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.Trim(text, "`\n\r\t ")

	var pred classifier.ChatPrediction
	if err := json.Unmarshal([]byte(text), &pred); err != nil {
		return classifier.ChatPrediction{}, fmt.Errorf("gemini reply is not a prediction: %w", err)
	}
	pred.Label = strings.TrimSpace(pred.Label)
	if pred.Label == "" {
		return classifier.ChatPrediction{}, fmt.Errorf("gemini reply has no label")
	}
	if pred.Confidence < 0 || pred.Confidence > 1 {
		return classifier.ChatPrediction{}, fmt.Errorf("gemini confidence %v out of range", pred.Confidence)
	}
	if len(s.labels) > 0 {
		label, ok := matchLabel(s.labels, pred.Label)
		if !ok {
			return classifier.ChatPrediction{}, fmt.Errorf("gemini label %q is not a known disease", pred.Label)
		}
		pred.Label = label
	}
	return pred, nil
}

func matchLabel(labels []string, got string) (string, bool) {
	for _, l := range labels {
		if strings.EqualFold(l, got) {
			return l, true
		}
	}
	return "", false
}
