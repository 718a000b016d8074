/*
Package model holds the plain value records shared by the session state
machine, the Gemini service and the HTTP layer. Nothing here owns behaviour
beyond small lookups; every record is copied freely between components.
*/
package model

import "strings"

// MealHistory stores the free-text lunch labels for the last three days.
type MealHistory struct {
	// Day1 is yesterday.
	Day1 string `json:"day1"`
	// Day2 is two days ago.
	Day2 string `json:"day2"`
	// Day3 is three days ago.
	Day3 string `json:"day3"`
}

// Complete reports whether all three slots are filled.
func (h MealHistory) Complete() bool {
	return h.Day1 != "" && h.Day2 != "" && h.Day3 != ""
}

// NextEmptyDay returns the first empty slot (1, 2 or 3) or 0 when full.
func (h MealHistory) NextEmptyDay() int {
	switch {
	case h.Day1 == "":
		return 1
	case h.Day2 == "":
		return 2
	case h.Day3 == "":
		return 3
	}
	return 0
}

// Slot returns the label stored for the given day offset.
func (h MealHistory) Slot(day int) string {
	switch day {
	case 1:
		return h.Day1
	case 2:
		return h.Day2
	case 3:
		return h.Day3
	}
	return ""
}

// WithSlot returns a copy of h with the given day set to label.
// Unknown days leave the history unchanged.
func (h MealHistory) WithSlot(day int, label string) MealHistory {
	switch day {
	case 1:
		h.Day1 = label
	case 2:
		h.Day2 = label
	case 3:
		h.Day3 = label
	}
	return h
}

// WeatherCondition is one of a closed set of six labels.
type WeatherCondition string

const (
	WeatherSunny  WeatherCondition = "Sunny"
	WeatherCloudy WeatherCondition = "Cloudy"
	WeatherRainy  WeatherCondition = "Rainy"
	WeatherSnowy  WeatherCondition = "Snowy"
	WeatherHot    WeatherCondition = "Hot"
	WeatherCold   WeatherCondition = "Cold"
)

// DefaultWeather is the value a new session starts with.
const DefaultWeather = WeatherSunny

// WeatherOption is the display data for a single weather choice.
type WeatherOption struct {
	Type  WeatherCondition `json:"type"`
	Icon  string           `json:"icon"`
	Label string           `json:"label"`
}

// WeatherOptions lists every weather condition in display order.
var WeatherOptions = []WeatherOption{
	{Type: WeatherSunny, Icon: "☀️", Label: "맑음"},
	{Type: WeatherCloudy, Icon: "☁️", Label: "흐림"},
	{Type: WeatherRainy, Icon: "🌧️", Label: "비"},
	{Type: WeatherSnowy, Icon: "❄️", Label: "눈"},
	{Type: WeatherHot, Icon: "🔥", Label: "무더위"},
	{Type: WeatherCold, Icon: "🥶", Label: "추움"},
}

// Valid reports whether w is a member of the closed set.
func (w WeatherCondition) Valid() bool {
	for _, opt := range WeatherOptions {
		if opt.Type == w {
			return true
		}
	}
	return false
}

// LocationData is a latitude/longitude pair read from the user's device.
type LocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MenuRecommendation is one dish suggested by the AI service.
type MenuRecommendation struct {
	DishName  string `json:"dishName"`
	Reasoning string `json:"reasoning"`
	// Calories is display text such as "약 500kcal", never parsed.
	Calories string   `json:"calories"`
	Tags     []string `json:"tags"`
}

// RestaurantResult is one candidate place for the chosen dish.
type RestaurantResult struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Rating  string `json:"rating,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// User is the mock-login identity. It is never checked against anything.
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	// APIKey is an optional personal Gemini credential.
	APIKey string `json:"-"`
}

// FoodCategory is one entry of the history screen's picker.
type FoodCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Keywords string `json:"keywords"`
}

// FoodCategories is the fixed picker catalogue.
var FoodCategories = []FoodCategory{
	{ID: "korean", Name: "한식", Keywords: "korean,food"},
	{ID: "chinese", Name: "중식", Keywords: "chinese,food"},
	{ID: "japanese", Name: "일식", Keywords: "sushi,ramen"},
	{ID: "western", Name: "양식", Keywords: "pasta,steak"},
	{ID: "chicken", Name: "치킨", Keywords: "fried,chicken"},
	{ID: "burger", Name: "피자/버거", Keywords: "burger,pizza"},
	{ID: "bunsik", Name: "분식", Keywords: "tteokbokki"},
	{ID: "salad", Name: "샐러드", Keywords: "salad,healthy"},
	{ID: "meat", Name: "고기/구이", Keywords: "bbq,meat"},
	{ID: "soup", Name: "찌개/탕", Keywords: "soup,stew"},
	{ID: "noodle", Name: "면요리", Keywords: "noodle"},
	{ID: "rice", Name: "밥/죽", Keywords: "rice,bowl"},
	{ID: "seafood", Name: "해산물", Keywords: "seafood,fish"},
	{ID: "bread", Name: "빵/샌드위치", Keywords: "bread,sandwich"},
	{ID: "asian", Name: "아시안", Keywords: "pho,curry"},
}

// SearchFoodCategories returns the categories whose name contains term.
// An empty term returns the whole catalogue.
func SearchFoodCategories(term string) []FoodCategory {
	term = strings.TrimSpace(term)
	out := make([]FoodCategory, 0, len(FoodCategories))
	for _, c := range FoodCategories {
		if strings.Contains(c.Name, term) {
			out = append(out, c)
		}
	}
	return out
}
