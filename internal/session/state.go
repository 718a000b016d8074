/*
Package session implements the visitor's screen flow as an explicit state
machine. A State is a plain value; every user action or network completion
is a reducer that takes the current State and returns the next one, so no
component ever mutates shared state behind another's back. The Store keeps
one State per visitor and publishes each new value.
*/
package session

import (
	"fmt"
	"strings"

	"lunchgenius/internal/model"
)

// LocationStatus tracks the one-shot device location read.
type LocationStatus string

const (
	LocationIdle    LocationStatus = "idle"
	LocationLoading LocationStatus = "loading"
	LocationSuccess LocationStatus = "success"
	LocationError   LocationStatus = "error"
)

// PlacesStatus tracks the restaurant lookup for the selected dish.
type PlacesStatus string

const (
	PlacesNone      PlacesStatus = ""
	PlacesSearching PlacesStatus = "searching"
	PlacesDone      PlacesStatus = "done"
)

// AuthMode selects which variant of the mock login form is shown.
type AuthMode string

const (
	AuthModeLogin  AuthMode = "login"
	AuthModeSignup AuthMode = "signup"
)

// PlaceLookup is the restaurant search attached to the selected dish.
type PlaceLookup struct {
	// Seq identifies the lookup so a late result for an abandoned search
	// is dropped.
	Seq    uint64
	Status PlacesStatus
	Text   string
	Places []model.RestaurantResult
}

// State is the whole per-visitor session. Treat it as immutable: reducers
// return a modified copy and never touch slices they did not create.
type State struct {
	Step         Step
	PreviousStep Step
	AuthMode     AuthMode
	User         *model.User

	History        model.MealHistory
	Weather        model.WeatherCondition
	Location       *model.LocationData
	LocationStatus LocationStatus
	LocationError  string

	// AnalysisSeq numbers recommendation runs; only the latest one applies.
	AnalysisSeq     uint64
	Recommendations []model.MenuRecommendation
	SelectedDish    string
	Places          PlaceLookup

	placesSeq uint64
}

// New returns the state of a fresh session.
func New() State {
	return State{
		Step:           StepHistoryInput,
		PreviousStep:   StepHistoryInput,
		AuthMode:       AuthModeLogin,
		Weather:        model.DefaultWeather,
		LocationStatus: LocationIdle,
	}
}

func (s State) require(step Step) error {
	if s.Step != step {
		return fmt.Errorf("%w: expected %s, on %s", ErrStepNotAllowed, step, s.Step)
	}
	return nil
}

func (s State) moveTo(step Step) (State, error) {
	if !CanTransition(s.Step, step) {
		return s, fmt.Errorf("%w: %s -> %s", ErrStepNotAllowed, s.Step, step)
	}
	s.Step = step
	return s, nil
}

/* =================================================================================
								CONTEXT COLLECTION
=================================================================================*/

// SelectMeal puts label into the first empty history slot. A full history
// is left untouched; selection never overwrites a filled slot.
func (s State) SelectMeal(label string) (State, error) {
	if err := s.require(StepHistoryInput); err != nil {
		return s, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return s, ErrBlankLabel
	}
	day := s.History.NextEmptyDay()
	if day == 0 {
		return s, nil
	}
	s.History = s.History.WithSlot(day, label)
	return s, nil
}

// ClearMeal empties one history slot.
func (s State) ClearMeal(day int) (State, error) {
	if err := s.require(StepHistoryInput); err != nil {
		return s, err
	}
	if day < 1 || day > 3 {
		return s, ErrInvalidDay
	}
	s.History = s.History.WithSlot(day, "")
	return s, nil
}

// CanAdvance reports whether the history screen's next action is enabled.
func (s State) CanAdvance() bool {
	return s.History.Complete()
}

// Advance leaves the history screen. Entering the context screen for the
// first time starts the device location read.
func (s State) Advance() (State, error) {
	if err := s.require(StepHistoryInput); err != nil {
		return s, err
	}
	if !s.CanAdvance() {
		return s, ErrHistoryIncomplete
	}
	next, err := s.moveTo(StepContextInput)
	if err != nil {
		return s, err
	}
	if next.LocationStatus == LocationIdle {
		next.LocationStatus = LocationLoading
	}
	return next, nil
}

// SetWeather records the user's weather choice.
func (s State) SetWeather(w model.WeatherCondition) (State, error) {
	if err := s.require(StepContextInput); err != nil {
		return s, err
	}
	if !w.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidWeather, w)
	}
	s.Weather = w
	return s, nil
}

func (s State) checkLocationPending() error {
	switch s.LocationStatus {
	case LocationLoading:
		return nil
	case LocationSuccess, LocationError:
		return ErrLocationSettled
	}
	return fmt.Errorf("%w: location has not been requested", ErrStepNotAllowed)
}

// ReportLocation completes the device read successfully. The location is
// fixed for the rest of the session.
func (s State) ReportLocation(loc model.LocationData) (State, error) {
	if err := s.checkLocationPending(); err != nil {
		return s, err
	}
	s.Location = &loc
	s.LocationStatus = LocationSuccess
	return s, nil
}

// ReportLocationError completes the device read with a failure. There is no
// retry: the session can no longer request recommendations.
func (s State) ReportLocationError(reason string) (State, error) {
	if err := s.checkLocationPending(); err != nil {
		return s, err
	}
	s.LocationStatus = LocationError
	s.LocationError = strings.TrimSpace(reason)
	return s, nil
}

// CanAnalyze reports whether the "get recommendations" action is enabled.
func (s State) CanAnalyze() bool {
	return s.LocationStatus == LocationSuccess && s.Location != nil && s.History.Complete()
}

/* =================================================================================
								RECOMMENDATION FLOW
=================================================================================*/

// BeginAnalysis moves to the waiting screen before the recommendation call.
func (s State) BeginAnalysis() (State, error) {
	if err := s.require(StepContextInput); err != nil {
		return s, err
	}
	if s.Location == nil || s.LocationStatus != LocationSuccess {
		return s, ErrLocationUnavailable
	}
	if !s.History.Complete() {
		return s, ErrHistoryIncomplete
	}
	next, err := s.moveTo(StepAnalyzing)
	if err != nil {
		return s, err
	}
	next.AnalysisSeq++
	return next, nil
}

// FinishAnalysis applies the recommendation call's outcome. A non-nil err
// sends the visitor back to the context screen. The update applies even if
// the visitor has navigated elsewhere meanwhile.
func (s State) FinishAnalysis(recs []model.MenuRecommendation, err error) State {
	if err != nil {
		s.Step = StepContextInput
		return s
	}
	s.Recommendations = recs
	s.Step = StepResults
	return s
}

// FinishAnalysisRun applies the outcome of run seq. A run superseded by a
// newer BeginAnalysis is dropped.
func (s State) FinishAnalysisRun(seq uint64, recs []model.MenuRecommendation, err error) State {
	if seq != s.AnalysisSeq {
		return s
	}
	return s.FinishAnalysis(recs, err)
}

// SelectDish starts the restaurant lookup for one of the recommendations.
func (s State) SelectDish(dish string) (State, error) {
	if err := s.require(StepResults); err != nil {
		return s, err
	}
	dish = strings.TrimSpace(dish)
	if dish == "" {
		return s, ErrBlankDish
	}
	if s.Location == nil {
		return s, ErrLocationUnavailable
	}
	next, err := s.moveTo(StepFindingRestaurants)
	if err != nil {
		return s, err
	}
	next.SelectedDish = dish
	next.placesSeq++
	next.Places = PlaceLookup{Seq: next.placesSeq, Status: PlacesSearching}
	return next, nil
}

// FinishPlaces stores the lookup result. Results for a lookup that has been
// abandoned (back, reset or a newer search) are dropped.
func (s State) FinishPlaces(seq uint64, text string, places []model.RestaurantResult) State {
	if s.Places.Seq != seq || s.Places.Status != PlacesSearching {
		return s
	}
	s.Places = PlaceLookup{Seq: seq, Status: PlacesDone, Text: text, Places: places}
	return s
}

// BackToResults returns from the restaurant screen with the recommendation
// list untouched.
func (s State) BackToResults() (State, error) {
	if err := s.require(StepFindingRestaurants); err != nil {
		return s, err
	}
	next, err := s.moveTo(StepResults)
	if err != nil {
		return s, err
	}
	next.Places = PlaceLookup{}
	return next, nil
}

// Reset starts over: history, recommendations and the selected dish are
// cleared.
func (s State) Reset() (State, error) {
	if err := s.require(StepResults); err != nil {
		return s, err
	}
	next, err := s.moveTo(StepHistoryInput)
	if err != nil {
		return s, err
	}
	next.History = model.MealHistory{}
	next.Recommendations = nil
	next.SelectedDish = ""
	next.Places = PlaceLookup{}
	return next, nil
}

// GoHome jumps to the history screen without clearing anything.
func (s State) GoHome() State {
	s.Step = StepHistoryInput
	return s
}
