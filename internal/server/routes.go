package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"lunchgenius/internal/config"
	"lunchgenius/internal/utility"
)

const (
	sessionCookieName = "lunch-session"
	sessionIDKey      = "sid"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)
	e.Use(MetricsMiddleware)

	e.GET("/health", s.healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.Use(s.SessionMiddleware)

	api.GET("/session", s.getSessionHandler)
	api.GET("/categories", listCategoriesHandler)
	api.GET("/weather", listWeatherHandler)
	api.GET("/ws", s.sessionSocketHandler)

	// History screen
	api.POST("/history/select", s.selectMealHandler)
	api.DELETE("/history/:day", s.clearMealHandler)
	api.POST("/history/next", s.advanceHandler)

	// Context screen
	api.PUT("/context/weather", s.setWeatherHandler)
	api.POST("/context/location", s.reportLocationHandler)
	api.POST("/context/location/error", s.reportLocationErrorHandler)
	api.POST("/analyze", s.analyzeHandler)

	// Results and restaurants
	api.POST("/results/select", s.selectDishHandler)
	api.POST("/results/back", s.backToResultsHandler)
	api.POST("/results/reset", s.resetHandler)
	api.POST("/home", s.goHomeHandler)

	// Mock account
	api.POST("/login/open", s.openLoginHandler)
	api.PUT("/login/mode", s.setAuthModeHandler)
	api.POST("/login", s.submitLoginHandler)
	api.POST("/login/cancel", s.cancelLoginHandler)
	api.POST("/profile/open", s.openProfileHandler)
	api.POST("/profile/close", s.closeProfileHandler)
	api.POST("/logout", s.logoutHandler)

	return e
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("ip", utility.GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		return next(c)
	}
}

// SessionMiddleware resolves the visitor's session id from the signed
// cookie, issuing a new one on the first request.
func (s *Server) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		logger := utility.Logger(c)

		// A cookie that fails verification still yields a fresh session.
		sess, err := s.cookies.Get(req, sessionCookieName)
		if err != nil {
			logger.Debug().Err(err).Msg("Discarding unreadable session cookie")
		}

		id, _ := sess.Values[sessionIDKey].(string)
		if _, perr := uuid.Parse(id); perr != nil {
			id = uuid.New().String()
			sess.Values[sessionIDKey] = id
			if err := sess.Save(req, c.Response()); err != nil {
				logger.Error().Err(err).Msg("Failed to save session cookie")
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
			}
			logger.Info().Str("session_id", id).Msg("New visitor session")
		}

		c.Set("session_id", id)
		sessLogger := logger.With().Str("session_id", id).Logger()
		c.Set("logger", &sessLogger)
		c.SetRequest(req.WithContext(sessLogger.WithContext(req.Context())))

		return next(c)
	}
}

func newCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.MaxAge(cfg.Session.MaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.IsProduction()
	store.Options.SameSite = http.SameSiteLaxMode

	log.Info().
		Str("env", cfg.AppEnv).
		Bool("secure_cookies", store.Options.Secure).
		Str("max_age", (time.Duration(cfg.Session.MaxAge) * time.Second).String()).
		Msg("Session cookies initialized")
	return store
}

// sessionID returns the id set by SessionMiddleware.
func sessionID(c echo.Context) string {
	id, _ := utility.GetSessionIDFromContext(c)
	return id
}

// parseDay reads the integer day path parameter. Range checks are left to
// the reducer.
func parseDay(raw string) (int, bool) {
	day, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return day, true
}
