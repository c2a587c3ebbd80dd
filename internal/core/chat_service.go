package core

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/store"
)

const (
	EmptyMessageReply = "Please enter a valid message."
	ChatErrorReply    = "⚠️ Error getting response from the bot."
)

var tracer = otel.Tracer("github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/core")

type ChatStore interface {
	AppendChatTurn(ctx context.Context, userID int64, userText, botText string) ([]store.ChatMessage, error)
	GetChatMessagesByUserID(ctx context.Context, userID int64) ([]store.ChatMessage, error)
}

type ChatPredictor interface {
	PredictChat(ctx context.Context, message string) (classifier.ChatPrediction, error)
}

type Recommender interface {
	ChatRecs(label string) []string
	PACRecs(condition string, severity int) []string
}

type ChatService struct {
	store     ChatStore
	predictor ChatPredictor
	recs      Recommender
	log       *logger.Logger
}

func NewChatService(s ChatStore, p ChatPredictor, recs Recommender, log *logger.Logger) *ChatService {
	return &ChatService{
		store:     s,
		predictor: p,
		recs:      recs,
		log:       log.With("service", "ChatService"),
	}
}

// Respond answers one chat message and records the exchange. An empty message
// gets a prompt back and nothing is stored. On error the caller should show
// ChatErrorReply.
func (s *ChatService) Respond(ctx context.Context, userID int64, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return EmptyMessageReply, nil
	}

	ctx, span := tracer.Start(ctx, "ChatService.Respond")
	defer span.End()

	pred, err := s.predictor.PredictChat(ctx, message)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat prediction failed: %w", err)
	}
	span.SetAttributes(
		attribute.String("chat.label", pred.Label),
		attribute.Float64("chat.confidence", pred.Confidence),
	)
	reply := FormatChatReply(pred, s.recs.ChatRecs(pred.Label))

	if _, err := s.store.AppendChatTurn(ctx, userID, message, reply); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to store chat turn: %w", err)
	}
	s.log.Debug("Chat turn stored", "user_id", userID, "label", pred.Label, "confidence", pred.Confidence)
	return reply, nil
}

// History returns the user's messages oldest first.
func (s *ChatService) History(ctx context.Context, userID int64) ([]store.ChatMessage, error) {
	msgs, err := s.store.GetChatMessagesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return msgs, nil
}

// FormatChatReply renders a prediction and its advice as the bot's reply.
func FormatChatReply(pred classifier.ChatPrediction, recs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 Possible Disease: %s (%s%% confidence)\n💡 Recommendations:", pred.Label, confidencePercent(pred.Confidence))
	for _, r := range recs {
		b.WriteString("\n- ")
		b.WriteString(r)
	}
	return b.String()
}

// confidencePercent renders a probability as a percentage rounded to two decimals, without trailing zeros.
func confidencePercent(p float64) string {
	pct := math.Round(p*100*100) / 100
	return strconv.FormatFloat(pct, 'f', -1, 64)
}
