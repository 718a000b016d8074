package geminiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"lunchgenius/internal/model"
)

// FallbackRecommendations is returned whenever the AI call fails.
func FallbackRecommendations() []model.MenuRecommendation {
	return []model.MenuRecommendation{
		{DishName: "비빔밥", Reasoning: "야채와 탄수화물의 균형이 좋은 메뉴입니다.", Calories: "500 kcal", Tags: []string{"건강", "한식", "채소"}},
		{DishName: "닭가슴살 샐러드", Reasoning: "가볍게 즐길 수 있는 건강식입니다.", Calories: "350 kcal", Tags: []string{"다이어트", "저탄수", "신선"}},
		{DishName: "우동", Reasoning: "따뜻한 국물이 날씨와 잘 어울립니다.", Calories: "450 kcal", Tags: []string{"따뜻함", "일식", "국물"}},
	}
}

// RecommendationResult is the outcome of a menu analysis. Items is never
// empty: on failure it holds the fallback list and Err the cause.
type RecommendationResult struct {
	Items   []model.MenuRecommendation
	Outcome Outcome
	Err     error
}

// Recommender asks the AI service for three lunch suggestions.
type Recommender struct {
	gen Generator
}

func NewRecommender(gen Generator) *Recommender {
	return &Recommender{gen: gen}
}

// AnalyzeMenuPreferences never fails from the caller's point of view. Any
// error is logged and replaced by the fallback list.
func (r *Recommender) AnalyzeMenuPreferences(ctx context.Context, history model.MealHistory, weather model.WeatherCondition, loc model.LocationData, apiKey string) RecommendationResult {
	log := zerolog.Ctx(ctx)
	start := time.Now()

	items, err := r.analyze(ctx, history, weather, loc, apiKey)
	if err != nil {
		log.Error().Err(err).Msg("Gemini Analysis Error")
		observe(opRecommend, OutcomeDegraded, time.Since(start).Seconds())
		return RecommendationResult{Items: FallbackRecommendations(), Outcome: OutcomeDegraded, Err: err}
	}

	log.Info().Int("count", len(items)).Msg("Menu recommendations generated")
	observe(opRecommend, OutcomeOK, time.Since(start).Seconds())
	return RecommendationResult{Items: items, Outcome: OutcomeOK}
}

func (r *Recommender) analyze(ctx context.Context, history model.MealHistory, weather model.WeatherCondition, loc model.LocationData, apiKey string) ([]model.MenuRecommendation, error) {
	payload := &GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: BuildMenuPrompt(history, weather, loc)}}},
		},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: structuredMimeType,
			ResponseSchema:   MenuSchema,
		},
	}

	resp, err := r.gen.GenerateContent(ctx, apiKey, payload)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, ErrNoContent
	}

	var items []model.MenuRecommendation
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}
	// A literal null decodes without error but is not a usable answer.
	if items == nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", ErrNoContent)
	}
	return items, nil
}
