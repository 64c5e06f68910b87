// Package coach generates personalized focus insights from a user's recent
// session history using Google's Generative AI models. Insight generation is
// a Pro-tier feature; access control happens at the handler, this package
// only talks to the model.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"focusflow/internal/config"
	"focusflow/internal/types"
)

// InsightService holds a Gemini client and the model it prompts.
type InsightService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewInsightService initializes the Gemini client from the coach
// configuration.
func NewInsightService(ctx context.Context, cfg config.CoachConfig, logger *slog.Logger) (*InsightService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey.Unmask()))
	if err != nil {
		return nil, fmt.Errorf("failed to create generative AI client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightService{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Close releases the underlying client connection.
func (s *InsightService) Close() error {
	return s.client.Close()
}

// GenerateInsight prompts the model with the user's recent session history
// and returns a short coaching note. The prompt never includes the user's
// email or any identifier beyond the session timings.
func (s *InsightService) GenerateInsight(ctx context.Context, user *types.UserProfile, recent []types.FocusSessionRecord) (*types.CoachInsight, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You are a focus and productivity coach. Given a summary of the " +
				"user's recent focus sessions, reply with one short, concrete, " +
				"encouraging suggestion (2-3 sentences). Do not use markdown.",
		)},
	}

	res, err := model.GenerateContent(ctx, genai.Text(s.buildPrompt(recent)))
	if err != nil {
		s.logger.ErrorContext(ctx, "insight generation failed",
			"op", "GenerateInsight",
			"user_id", user.ID,
			"model", s.model,
			"error", err,
		)
		return nil, types.NewAppError(types.ErrCodeUpstreamCoach, "coach service unavailable", err)
	}

	text := extractText(res)
	if text == "" {
		return nil, types.NewAppError(types.ErrCodeUpstreamCoach, "coach service returned an empty response", nil)
	}

	return &types.CoachInsight{
		Text:        text,
		Model:       s.model,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// buildPrompt summarizes the session history into a compact, timestamped
// listing the model can reason about.
func (s *InsightService) buildPrompt(recent []types.FocusSessionRecord) string {
	if len(recent) == 0 {
		return "The user has not completed any focus sessions recently. Suggest how to get started."
	}

	var b strings.Builder
	b.WriteString("Recent sessions (newest first):\n")
	for _, rec := range recent {
		fmt.Fprintf(&b, "- %s: %s session, %d minutes\n",
			rec.CreatedAt.UTC().Format("Mon 15:04"), rec.Kind, rec.DurationMinutes)
	}
	return b.String()
}

// extractText concatenates the text parts of the first candidate.
func extractText(res *genai.GenerateContentResponse) string {
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
