package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMealHistory_NextEmptyDay(t *testing.T) {
	assert.Equal(t, 1, MealHistory{}.NextEmptyDay())
	assert.Equal(t, 2, MealHistory{Day1: "a"}.NextEmptyDay())
	assert.Equal(t, 1, MealHistory{Day2: "b"}.NextEmptyDay())
	assert.Equal(t, 3, MealHistory{Day1: "a", Day2: "b"}.NextEmptyDay())
	assert.Equal(t, 0, MealHistory{Day1: "a", Day2: "b", Day3: "c"}.NextEmptyDay())
}

func TestMealHistory_WithSlot(t *testing.T) {
	h := MealHistory{}.WithSlot(2, "b")
	assert.Equal(t, "b", h.Slot(2))
	assert.Equal(t, h, h.WithSlot(7, "x"))
	assert.Equal(t, "", h.Slot(7))
}

func TestWeatherCondition_Valid(t *testing.T) {
	for _, opt := range WeatherOptions {
		assert.True(t, opt.Type.Valid(), opt.Type)
	}
	assert.Len(t, WeatherOptions, 6)
	assert.False(t, WeatherCondition("Foggy").Valid())
	assert.False(t, WeatherCondition("sunny").Valid())
}

func TestSearchFoodCategories(t *testing.T) {
	assert.Len(t, SearchFoodCategories(""), len(FoodCategories))

	got := SearchFoodCategories("식")
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"한식", "중식", "일식", "양식", "분식"}, names)

	assert.Empty(t, SearchFoodCategories("없는메뉴"))
}
