package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lunchgenius/internal/model"
)

var seoul = model.LocationData{Latitude: 37.5665, Longitude: 126.978}

// must unwraps a reducer result, failing the test on error.
func must(t *testing.T) func(State, error) State {
	return func(st State, err error) State {
		t.Helper()
		require.NoError(t, err)
		return st
	}
}

// fullHistory returns a state on the history screen with all slots filled.
func fullHistory(t *testing.T) State {
	t.Helper()
	st := New()
	for _, label := range []string{"김치찌개", "돈까스", "짜장면"} {
		st = must(t)(st.SelectMeal(label))
	}
	return st
}

// atResults drives a fresh session to the results screen.
func atResults(t *testing.T, recs []model.MenuRecommendation) State {
	t.Helper()
	st := must(t)(fullHistory(t).Advance())
	st = must(t)(st.ReportLocation(seoul))
	st = must(t)(st.BeginAnalysis())
	return st.FinishAnalysis(recs, nil)
}

var sampleRecs = []model.MenuRecommendation{
	{DishName: "쌀국수", Reasoning: "r1", Calories: "450 kcal", Tags: []string{"a", "b", "c"}},
	{DishName: "포케", Reasoning: "r2", Calories: "400 kcal", Tags: []string{"d", "e", "f"}},
	{DishName: "마라탕", Reasoning: "r3", Calories: "700 kcal", Tags: []string{"g", "h", "i"}},
}

func TestNew(t *testing.T) {
	st := New()
	assert.Equal(t, StepHistoryInput, st.Step)
	assert.Equal(t, model.WeatherSunny, st.Weather)
	assert.Equal(t, LocationIdle, st.LocationStatus)
	assert.Nil(t, st.User)
	assert.False(t, st.CanAdvance())
	assert.False(t, st.CanAnalyze())
}

func TestSelectMeal_FillsFirstEmptySlot(t *testing.T) {
	st := New()
	st = must(t)(st.SelectMeal("김치찌개"))
	assert.Equal(t, model.MealHistory{Day1: "김치찌개"}, st.History)

	st = must(t)(st.SelectMeal("  돈까스 "))
	assert.Equal(t, model.MealHistory{Day1: "김치찌개", Day2: "돈까스"}, st.History)

	st = must(t)(st.ClearMeal(1))
	st = must(t)(st.SelectMeal("라멘"))
	assert.Equal(t, model.MealHistory{Day1: "라멘", Day2: "돈까스"}, st.History, "cleared slot is refilled first")

	st = must(t)(st.SelectMeal("짜장면"))
	assert.Equal(t, model.MealHistory{Day1: "라멘", Day2: "돈까스", Day3: "짜장면"}, st.History)
}

func TestSelectMeal_FullHistoryIsNoop(t *testing.T) {
	st := fullHistory(t)
	before := st.History

	st = must(t)(st.SelectMeal("피자"))
	assert.Equal(t, before, st.History)
}

func TestSelectMeal_RejectsBlank(t *testing.T) {
	_, err := New().SelectMeal("   ")
	assert.ErrorIs(t, err, ErrBlankLabel)
}

func TestClearMeal_InvalidDay(t *testing.T) {
	for _, day := range []int{0, 4, -1} {
		_, err := fullHistory(t).ClearMeal(day)
		assert.ErrorIs(t, err, ErrInvalidDay, "day %d", day)
	}
}

func TestCanAdvance_RequiresAllThreeSlots(t *testing.T) {
	st := New()
	for _, label := range []string{"a", "b"} {
		st = must(t)(st.SelectMeal(label))
		assert.False(t, st.CanAdvance())
		_, err := st.Advance()
		assert.ErrorIs(t, err, ErrHistoryIncomplete)
	}
	st = must(t)(st.SelectMeal("c"))
	assert.True(t, st.CanAdvance())

	st = must(t)(st.ClearMeal(2))
	assert.False(t, st.CanAdvance())
}

func TestAdvance_StartsLocationOnce(t *testing.T) {
	st := must(t)(fullHistory(t).Advance())
	assert.Equal(t, StepContextInput, st.Step)
	assert.Equal(t, LocationLoading, st.LocationStatus)

	st = must(t)(st.ReportLocation(seoul))
	st = st.GoHome()
	st = must(t)(st.Advance())
	assert.Equal(t, LocationSuccess, st.LocationStatus, "location is not read again")
	assert.Equal(t, seoul, *st.Location)
}

func TestSetWeather(t *testing.T) {
	_, err := New().SetWeather(model.WeatherRainy)
	assert.ErrorIs(t, err, ErrStepNotAllowed, "only on the context screen")

	st := must(t)(fullHistory(t).Advance())
	st = must(t)(st.SetWeather(model.WeatherRainy))
	assert.Equal(t, model.WeatherRainy, st.Weather)

	_, err = st.SetWeather("Foggy")
	assert.ErrorIs(t, err, ErrInvalidWeather)
}

func TestLocation_SuccessEnablesAnalysis(t *testing.T) {
	st := must(t)(fullHistory(t).Advance())
	assert.False(t, st.CanAnalyze())

	st = must(t)(st.ReportLocation(seoul))
	assert.True(t, st.CanAnalyze())

	_, err := st.ReportLocation(model.LocationData{Latitude: 1, Longitude: 2})
	assert.ErrorIs(t, err, ErrLocationSettled)
	_, err = st.ReportLocationError("denied")
	assert.ErrorIs(t, err, ErrLocationSettled)
}

func TestLocation_DenialDisablesAnalysisForever(t *testing.T) {
	st := must(t)(fullHistory(t).Advance())
	st = must(t)(st.ReportLocationError("User denied Geolocation"))
	assert.Equal(t, LocationError, st.LocationStatus)
	assert.False(t, st.CanAnalyze())

	_, err := st.BeginAnalysis()
	assert.ErrorIs(t, err, ErrLocationUnavailable)

	_, err = st.ReportLocation(seoul)
	assert.ErrorIs(t, err, ErrLocationSettled, "no retry after denial")

	st = st.GoHome()
	st = must(t)(st.Advance())
	assert.Equal(t, LocationError, st.LocationStatus)
	assert.False(t, st.CanAnalyze())
}

func TestLocation_ReportBeforeRequestRejected(t *testing.T) {
	_, err := New().ReportLocation(seoul)
	assert.ErrorIs(t, err, ErrStepNotAllowed)
}

func TestAnalysis_Flow(t *testing.T) {
	st := must(t)(fullHistory(t).Advance())
	st = must(t)(st.ReportLocation(seoul))
	st = must(t)(st.BeginAnalysis())
	assert.Equal(t, StepAnalyzing, st.Step)

	_, err := st.BeginAnalysis()
	assert.ErrorIs(t, err, ErrStepNotAllowed)

	done := st.FinishAnalysis(sampleRecs, nil)
	assert.Equal(t, StepResults, done.Step)
	assert.Equal(t, sampleRecs, done.Recommendations)

	failed := st.FinishAnalysis(nil, errors.New("boom"))
	assert.Equal(t, StepContextInput, failed.Step)
	assert.Empty(t, failed.Recommendations)
}

func TestFinishAnalysis_AppliesAfterNavigation(t *testing.T) {
	st := must(t)(fullHistory(t).Advance())
	st = must(t)(st.ReportLocation(seoul))
	st = must(t)(st.BeginAnalysis())

	st = st.GoHome()
	st = st.FinishAnalysis(sampleRecs, nil)
	assert.Equal(t, StepResults, st.Step)
	assert.Equal(t, sampleRecs, st.Recommendations)
}

func TestFinishAnalysisRun_DropsSupersededRun(t *testing.T) {
	st := must(t)(fullHistory(t).Advance())
	st = must(t)(st.ReportLocation(seoul))
	st = must(t)(st.BeginAnalysis())
	first := st.AnalysisSeq

	st = must(t)(st.GoHome().Advance())
	st = must(t)(st.SetWeather(model.WeatherRainy))
	st = must(t)(st.BeginAnalysis())
	second := st.AnalysisSeq
	require.NotEqual(t, first, second)

	stale := st.FinishAnalysisRun(first, sampleRecs, nil)
	assert.Equal(t, StepAnalyzing, stale.Step)
	assert.Empty(t, stale.Recommendations)

	done := st.FinishAnalysisRun(second, sampleRecs[:1], nil)
	assert.Equal(t, StepResults, done.Step)
	assert.Equal(t, sampleRecs[:1], done.Recommendations)
}

func TestSelectDish_AndBackKeepsList(t *testing.T) {
	st := atResults(t, sampleRecs)

	st = must(t)(st.SelectDish("포케"))
	assert.Equal(t, StepFindingRestaurants, st.Step)
	assert.Equal(t, "포케", st.SelectedDish)
	assert.Equal(t, PlacesSearching, st.Places.Status)

	places := []model.RestaurantResult{{Name: "포케올데이", Address: "서울"}}
	st = st.FinishPlaces(st.Places.Seq, "찾았어요", places)
	assert.Equal(t, PlacesDone, st.Places.Status)
	assert.Equal(t, places, st.Places.Places)

	st = must(t)(st.BackToResults())
	assert.Equal(t, StepResults, st.Step)
	assert.Equal(t, sampleRecs, st.Recommendations)
	assert.Equal(t, PlacesNone, st.Places.Status)
}

func TestSelectDish_Validation(t *testing.T) {
	_, err := atResults(t, sampleRecs).SelectDish(" ")
	assert.ErrorIs(t, err, ErrBlankDish)

	_, err = New().SelectDish("포케")
	assert.ErrorIs(t, err, ErrStepNotAllowed)

	// Results reached without a location cannot look up places.
	st := fullHistory(t).FinishAnalysis(sampleRecs, nil)
	_, err = st.SelectDish("포케")
	assert.ErrorIs(t, err, ErrLocationUnavailable)
}

func TestFinishPlaces_DropsAbandonedLookup(t *testing.T) {
	st := must(t)(atResults(t, sampleRecs).SelectDish("포케"))
	oldSeq := st.Places.Seq

	st = must(t)(st.BackToResults())
	st = st.FinishPlaces(oldSeq, "late", []model.RestaurantResult{{Name: "x"}})
	assert.Equal(t, PlacesNone, st.Places.Status)

	st = must(t)(st.SelectDish("마라탕"))
	assert.NotEqual(t, oldSeq, st.Places.Seq)
	st = st.FinishPlaces(oldSeq, "late", []model.RestaurantResult{{Name: "x"}})
	assert.Equal(t, PlacesSearching, st.Places.Status, "result for the earlier dish is ignored")
}

func TestReset_ClearsEverything(t *testing.T) {
	st := atResults(t, sampleRecs)
	st = must(t)(st.Reset())

	assert.Equal(t, StepHistoryInput, st.Step)
	assert.Equal(t, model.MealHistory{}, st.History)
	assert.Empty(t, st.Recommendations)
	assert.Empty(t, st.SelectedDish)
	assert.Equal(t, PlaceLookup{}, st.Places)
	assert.False(t, st.CanAdvance())
}

func TestReset_OnlyFromResults(t *testing.T) {
	_, err := fullHistory(t).Reset()
	assert.ErrorIs(t, err, ErrStepNotAllowed)
}

func TestGoHome_KeepsData(t *testing.T) {
	st := atResults(t, sampleRecs)
	st = st.GoHome()
	assert.Equal(t, StepHistoryInput, st.Step)
	assert.True(t, st.History.Complete())
	assert.Equal(t, sampleRecs, st.Recommendations)
}

func TestReducers_DoNotMutateReceiver(t *testing.T) {
	st := New()
	_ = must(t)(st.SelectMeal("김밥"))
	assert.Equal(t, model.MealHistory{}, st.History)
}
