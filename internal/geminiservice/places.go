package geminiservice

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"lunchgenius/internal/model"
)

const (
	defaultPlacesText = "주변 음식점 정보를 불러왔습니다."
	webAddressHint    = "링크에서 확인하세요"
	unknownPlaceName  = "알 수 없는 장소"
	unknownAddress    = "주소 정보 없음"
	mapsPlaceURL      = "https://www.google.com/maps/place/?q=place_id:"
)

// FallbackPlacesText is shown when the lookup fails.
func FallbackPlacesText(dishName string) string {
	return "현재 지도 정보를 불러올 수 없지만, 지도 앱에서 '" + dishName + "'을(를) 검색해보세요!"
}

// PlacesResult is the outcome of a restaurant lookup.
type PlacesResult struct {
	Text    string
	Places  []model.RestaurantResult
	Outcome Outcome
	Err     error
}

// PlaceFinder looks up nearby restaurants with Maps grounding.
type PlaceFinder struct {
	gen Generator
}

func NewPlaceFinder(gen Generator) *PlaceFinder {
	return &PlaceFinder{gen: gen}
}

// FindRestaurantsForDish never fails from the caller's point of view; on
// error the text tells the user to search a maps app and Places is empty.
func (f *PlaceFinder) FindRestaurantsForDish(ctx context.Context, dishName string, loc model.LocationData, apiKey string) PlacesResult {
	log := zerolog.Ctx(ctx)
	start := time.Now()

	payload := &GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: BuildPlacePrompt(dishName)}}},
		},
		Tools: []GeminiTool{{GoogleMaps: &struct{}{}}},
		ToolConfig: &ToolConfig{
			RetrievalConfig: &RetrievalConfig{
				LatLng: &LatLng{Latitude: loc.Latitude, Longitude: loc.Longitude},
			},
		},
	}

	resp, err := f.gen.GenerateContent(ctx, apiKey, payload)
	if err != nil {
		log.Error().Err(err).Str("dish", dishName).Msg("Gemini Maps Error")
		observe(opPlaces, OutcomeDegraded, time.Since(start).Seconds())
		return PlacesResult{
			Text:    FallbackPlacesText(dishName),
			Places:  []model.RestaurantResult{},
			Outcome: OutcomeDegraded,
			Err:     err,
		}
	}

	text := resp.Text()
	if text == "" {
		text = defaultPlacesText
	}
	places := ExtractPlaces(resp.Chunks())

	log.Info().Str("dish", dishName).Int("places", len(places)).Msg("Restaurant lookup finished")
	observe(opPlaces, OutcomeOK, time.Since(start).Seconds())
	return PlacesResult{Text: text, Places: places, Outcome: OutcomeOK}
}

// ExtractPlaces turns grounding chunks into restaurant entries in source
// order. A chunk carrying both a web and a maps source yields two entries;
// duplicates are kept.
func ExtractPlaces(chunks []GroundingChunk) []model.RestaurantResult {
	places := make([]model.RestaurantResult, 0, len(chunks))
	for _, chunk := range chunks {
		if w := chunk.Web; w != nil && w.URI != "" && w.Title != "" {
			places = append(places, model.RestaurantResult{
				Name:    w.Title,
				Address: webAddressHint,
				URI:     w.URI,
			})
		}
		if m := chunk.Maps; m != nil {
			p := model.RestaurantResult{
				Name:    m.Title,
				Address: m.Address,
			}
			if p.Name == "" {
				p.Name = unknownPlaceName
			}
			if p.Address == "" {
				p.Address = unknownAddress
			}
			if r := formatRating(m.Rating); r != "" {
				p.Rating = "★ " + r
			}
			if m.PlaceID != "" {
				p.URI = mapsPlaceURL + m.PlaceID
			}
			places = append(places, p)
		}
	}
	return places
}

// formatRating renders a rating, or "" when it is absent, zero or empty.
func formatRating(v any) string {
	switch r := v.(type) {
	case float64:
		if r == 0 {
			return ""
		}
		return strconv.FormatFloat(r, 'f', -1, 64)
	case string:
		return r
	default:
		return ""
	}
}
