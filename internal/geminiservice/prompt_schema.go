package geminiservice

import (
	"fmt"

	"lunchgenius/internal/model"
)

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format its JSON response
=================================================================================*/

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING").
	Type string `json:"type"`

	// Description explains the field's purpose to the AI, helping it generate better content.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// MinItems and MaxItems bound the array length.
	MinItems string `json:"minItems,omitempty"`
	MaxItems string `json:"maxItems,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// PropertyOrdering keeps the generated JSON keys in a stable order.
	PropertyOrdering []string `json:"propertyOrdering,omitempty"`
}

// MenuSchema is the response schema for the lunch recommendation call: an
// array of dishes, each with exactly three tags.
var MenuSchema = &GeminiSchema{
	Type: "ARRAY",
	Items: &GeminiSchema{
		Type: "OBJECT",
		Properties: map[string]*GeminiSchema{
			"dishName": {
				Type:        "STRING",
				Description: "음식 이름 (예: 김치찌개)",
			},
			"reasoning": {
				Type:        "STRING",
				Description: "이 메뉴를 추천하는 이유 (날씨 및 기록 기반)",
			},
			"calories": {
				Type:        "STRING",
				Description: "대략적인 칼로리 (예: '약 500kcal')",
			},
			"tags": {
				Type:        "ARRAY",
				Items:       &GeminiSchema{Type: "STRING"},
				MinItems:    "3",
				MaxItems:    "3",
				Description: "3개의 짧은 태그 (예: ['얼큰함', '단백질', '해장'])",
			},
		},
		Required:         []string{"dishName", "reasoning", "calories", "tags"},
		PropertyOrdering: []string{"dishName", "reasoning", "calories", "tags"},
	},
}

/* =================================================================================
								PROMPT TEMPLATES
=================================================================================*/

// menuPromptTemplate takes, in order: the meal 3 days ago, 2 days ago,
// yesterday, the weather, latitude and longitude.
const menuPromptTemplate = `
당신은 세계적인 영양사이자 미식가 셰프입니다.

사용자 컨텍스트:
- 최근 3일간 점심 식사 기록: 3일 전(%s), 2일 전(%s), 어제(%s).
- 현재 날씨: %s.
- 위치 (위도/경도): %v, %v (가능하다면 해당 지역의 문화적/지리적 특성을 고려하세요).

임무:
과거 식사의 영양 균형과 식감, 종류를 분석하세요.
오늘 점심으로 적절한, 서로 다른 스타일의 메뉴 3가지를 추천해주세요. 날씨와 이전 식사 기록을 고려해야 합니다.

1. 옵션 1: 이전 식사를 고려했을 때 속이 편안하거나 영양 균형을 맞추는 메뉴.
2. 옵션 2: 조금 더 가볍거나 건강한 대안.
3. 옵션 3: 약간의 모험이나 자극이 되는 선택 (매운맛, 특이한 별미 등).

출력 요구사항:
반드시 아래 스키마에 맞는 JSON 형식만 반환하세요.
언어는 한국어로 출력하세요.
`

const placePromptTemplate = `내 현재 위치 근처에서 "%s" 맛집을 찾아주세요. 평점이 높고 인기 있는 곳 위주로 추천해주세요.`

// BuildMenuPrompt renders the recommendation prompt. History is listed
// oldest first.
func BuildMenuPrompt(history model.MealHistory, weather model.WeatherCondition, loc model.LocationData) string {
	return fmt.Sprintf(menuPromptTemplate,
		history.Day3, history.Day2, history.Day1,
		weather,
		loc.Latitude, loc.Longitude,
	)
}

// BuildPlacePrompt renders the nearby restaurant search prompt.
func BuildPlacePrompt(dishName string) string {
	return fmt.Sprintf(placePromptTemplate, dishName)
}
