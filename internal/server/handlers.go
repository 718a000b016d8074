package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"lunchgenius/internal/geminiservice"
	"lunchgenius/internal/model"
	"lunchgenius/internal/session"
	"lunchgenius/internal/utility"
)

var errInvalidRequest = errors.New("invalid request body")

// respondError maps session errors onto status codes.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, session.ErrInvalidWeather),
		errors.Is(err, session.ErrInvalidDay),
		errors.Is(err, session.ErrBlankLabel),
		errors.Is(err, session.ErrBlankDish),
		errors.Is(err, session.ErrInvalidAuthMode):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrStepNotAllowed),
		errors.Is(err, session.ErrHistoryIncomplete),
		errors.Is(err, session.ErrLocationUnavailable),
		errors.Is(err, session.ErrLocationSettled),
		errors.Is(err, session.ErrNotAuthenticated):
		status = http.StatusConflict
	}

	logger := utility.Logger(c)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Info().Err(err).Int("status", status).Msg("Action rejected")
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// update runs a reducer against the caller's session and answers with the
// resulting view.
func (s *Server) update(c echo.Context, reduce func(session.State) (session.State, error)) error {
	st, err := s.store.Update(sessionID(c), reduce)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st.View())
}

func (s *Server) getSessionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Get(sessionID(c)).View())
}

func listCategoriesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, model.SearchFoodCategories(c.QueryParam("q")))
}

func listWeatherHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, model.WeatherOptions)
}

/* ====================================================================
                   		History Screen
==================================================================== */

type selectMealRequest struct {
	Label string `json:"label" form:"label"`
}

func (s *Server) selectMealHandler(c echo.Context) error {
	var req selectMealRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	return s.update(c, func(st session.State) (session.State, error) {
		return st.SelectMeal(req.Label)
	})
}

func (s *Server) clearMealHandler(c echo.Context) error {
	day, ok := parseDay(c.Param("day"))
	if !ok {
		return respondError(c, fmt.Errorf("%w: %q", session.ErrInvalidDay, c.Param("day")))
	}
	return s.update(c, func(st session.State) (session.State, error) {
		return st.ClearMeal(day)
	})
}

func (s *Server) advanceHandler(c echo.Context) error {
	return s.update(c, session.State.Advance)
}

/* ====================================================================
                   		Context Screen
==================================================================== */

type weatherRequest struct {
	Weather model.WeatherCondition `json:"weather" form:"weather"`
}

func (s *Server) setWeatherHandler(c echo.Context) error {
	var req weatherRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	return s.update(c, func(st session.State) (session.State, error) {
		return st.SetWeather(req.Weather)
	})
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r locationRequest) validate() (model.LocationData, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return model.LocationData{}, fmt.Errorf("%w: latitude and longitude are required", errInvalidRequest)
	}
	lat, lng := *r.Latitude, *r.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.LocationData{}, fmt.Errorf("%w: coordinates out of range", errInvalidRequest)
	}
	return model.LocationData{Latitude: lat, Longitude: lng}, nil
}

func (s *Server) reportLocationHandler(c echo.Context) error {
	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	loc, err := req.validate()
	if err != nil {
		return respondError(c, err)
	}
	return s.update(c, func(st session.State) (session.State, error) {
		return st.ReportLocation(loc)
	})
}

type locationErrorRequest struct {
	Reason string `json:"reason" form:"reason"`
}

func (s *Server) reportLocationErrorHandler(c echo.Context) error {
	var req locationErrorRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	utility.Logger(c).Warn().Str("reason", req.Reason).Msg("Device location unavailable")
	return s.update(c, func(st session.State) (session.State, error) {
		return st.ReportLocationError(req.Reason)
	})
}

/* ====================================================================
                   		AI Calls
==================================================================== */

// detachedContext keeps the request logger but survives the request: a
// visitor navigating away or disconnecting does not abort the AI call.
func detachedContext(c echo.Context) context.Context {
	return utility.Logger(c).WithContext(context.WithoutCancel(c.Request().Context()))
}

// await waits for a shared flight, giving up (but not cancelling it) when
// the caller goes away.
func await(c echo.Context, ch <-chan singleflight.Result) error {
	select {
	case res := <-ch:
		if res.Err != nil {
			return respondError(c, res.Err)
		}
		return c.JSON(http.StatusOK, res.Val)
	case <-c.Request().Context().Done():
		utility.Logger(c).Info().Msg("Client left before the AI call finished; result will still be applied")
		return c.Request().Context().Err()
	}
}

func (s *Server) analyzeHandler(c echo.Context) error {
	sid := sessionID(c)
	ctx := detachedContext(c)

	// Presses with the same inputs share one call; changed inputs start a
	// new run and the older run's result is dropped.
	cur := s.store.Get(sid)
	key := fmt.Sprintf("%s:analyze:%s|%s|%s|%s", sid, cur.Weather, cur.History.Day1, cur.History.Day2, cur.History.Day3)

	ch := s.flights.DoChan(key, func() (any, error) {
		st, err := s.store.Update(sid, session.State.BeginAnalysis)
		if err != nil {
			return nil, err
		}

		res := s.advisor.AnalyzeMenuPreferences(ctx, st.History, st.Weather, *st.Location, st.APIKey())
		if res.Outcome == geminiservice.OutcomeDegraded {
			zerolog.Ctx(ctx).Warn().Err(res.Err).Msg("Serving fallback recommendations")
		}

		seq := st.AnalysisSeq
		next := s.store.Apply(sid, func(cur session.State) session.State {
			return cur.FinishAnalysisRun(seq, res.Items, nil)
		})
		return next.View(), nil
	})
	return await(c, ch)
}

type selectDishRequest struct {
	DishName string `json:"dishName" form:"dishName"`
}

func (s *Server) selectDishHandler(c echo.Context) error {
	var req selectDishRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	sid := sessionID(c)
	ctx := detachedContext(c)

	ch := s.flights.DoChan(sid+":places:"+req.DishName, func() (any, error) {
		st, err := s.store.Update(sid, func(cur session.State) (session.State, error) {
			return cur.SelectDish(req.DishName)
		})
		if err != nil {
			return nil, err
		}

		res := s.finder.FindRestaurantsForDish(ctx, st.SelectedDish, *st.Location, st.APIKey())
		if res.Outcome == geminiservice.OutcomeDegraded {
			zerolog.Ctx(ctx).Warn().Err(res.Err).Str("dish", st.SelectedDish).Msg("Serving fallback place text")
		}

		seq := st.Places.Seq
		next := s.store.Apply(sid, func(cur session.State) session.State {
			return cur.FinishPlaces(seq, res.Text, res.Places)
		})
		return next.View(), nil
	})
	return await(c, ch)
}

/* ====================================================================
                   		Navigation
==================================================================== */

func (s *Server) backToResultsHandler(c echo.Context) error {
	return s.update(c, session.State.BackToResults)
}

func (s *Server) resetHandler(c echo.Context) error {
	return s.update(c, session.State.Reset)
}

func (s *Server) goHomeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Apply(sessionID(c), session.State.GoHome).View())
}

/* ====================================================================
                   		Mock Account
==================================================================== */

type openLoginRequest struct {
	Mode session.AuthMode `json:"mode" form:"mode"`
}

func (s *Server) openLoginHandler(c echo.Context) error {
	var req openLoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	return s.update(c, func(st session.State) (session.State, error) {
		return st.OpenLogin(req.Mode)
	})
}

// setAuthModeHandler toggles the login form between login and signup.
func (s *Server) setAuthModeHandler(c echo.Context) error {
	var req openLoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	return s.update(c, func(st session.State) (session.State, error) {
		return st.SetAuthMode(req.Mode)
	})
}

func (s *Server) submitLoginHandler(c echo.Context) error {
	var form session.LoginForm
	if err := c.Bind(&form); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
	}
	st, err := s.store.Update(sessionID(c), func(st session.State) (session.State, error) {
		return st.SubmitLogin(form)
	})
	if err != nil {
		return respondError(c, err)
	}
	utility.Logger(c).Info().Str("name", st.User.Name).Bool("has_api_key", st.User.APIKey != "").Msg("Mock login")
	return c.JSON(http.StatusOK, st.View())
}

func (s *Server) cancelLoginHandler(c echo.Context) error {
	return s.update(c, session.State.CancelLogin)
}

func (s *Server) openProfileHandler(c echo.Context) error {
	return s.update(c, session.State.OpenProfile)
}

func (s *Server) closeProfileHandler(c echo.Context) error {
	return s.update(c, session.State.CloseProfile)
}

func (s *Server) logoutHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Apply(sessionID(c), session.State.Logout).View())
}

/* ====================================================================
                   		State Push
==================================================================== */

// sessionSocketHandler streams every state change of the caller's session.
// The current view is sent on connect.
func (s *Server) sessionSocketHandler(c echo.Context) error {
	sid := sessionID(c)

	ws, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	var sendErr error
	s.store.Watch(sid, func(v session.View) {
		sendErr = s.hub.RegisterAndSend(sid, ws, v)
	})
	if sendErr != nil {
		utility.Logger(c).Warn().Err(sendErr).Msg("Failed to send initial state")
		return nil
	}
	defer s.hub.Unregister(sid, ws)

	// We don't expect messages FROM the client, but we must read to keep socket open
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	return nil
}
