package session

import "lunchgenius/internal/model"

// UserView is the public part of the mock identity. The personal API key is
// never sent back to the browser.
type UserView struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	HasAPIKey bool   `json:"hasApiKey"`
}

// PlacesView is the restaurant screen's data.
type PlacesView struct {
	Status PlacesStatus             `json:"status,omitempty"`
	Text   string                   `json:"text,omitempty"`
	Places []model.RestaurantResult `json:"places"`
}

// View is what the browser renders for the current screen.
type View struct {
	Step            Step                       `json:"step"`
	PreviousStep    Step                       `json:"previousStep"`
	AuthMode        AuthMode                   `json:"authMode"`
	User            *UserView                  `json:"user"`
	History         model.MealHistory          `json:"history"`
	NextEmptyDay    int                        `json:"nextEmptyDay"`
	CanAdvance      bool                       `json:"canAdvance"`
	Weather         model.WeatherCondition     `json:"weather"`
	LocationStatus  LocationStatus             `json:"locationStatus"`
	Location        *model.LocationData        `json:"location,omitempty"`
	CanAnalyze      bool                       `json:"canAnalyze"`
	Recommendations []model.MenuRecommendation `json:"recommendations"`
	SelectedDish    string                     `json:"selectedDish,omitempty"`
	Places          PlacesView                 `json:"places"`
}

// View projects the state for rendering.
func (s State) View() View {
	v := View{
		Step:            s.Step,
		PreviousStep:    s.PreviousStep,
		AuthMode:        s.AuthMode,
		History:         s.History,
		NextEmptyDay:    s.History.NextEmptyDay(),
		CanAdvance:      s.CanAdvance(),
		Weather:         s.Weather,
		LocationStatus:  s.LocationStatus,
		Location:        s.Location,
		CanAnalyze:      s.CanAnalyze(),
		Recommendations: s.Recommendations,
		SelectedDish:    s.SelectedDish,
		Places: PlacesView{
			Status: s.Places.Status,
			Text:   s.Places.Text,
			Places: s.Places.Places,
		},
	}
	if v.Recommendations == nil {
		v.Recommendations = []model.MenuRecommendation{}
	}
	if v.Places.Places == nil {
		v.Places.Places = []model.RestaurantResult{}
	}
	if s.User != nil {
		v.User = &UserView{
			Name:      s.User.Name,
			Email:     s.User.Email,
			Avatar:    s.User.Avatar,
			HasAPIKey: s.User.APIKey != "",
		}
	}
	return v
}
