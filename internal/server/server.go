/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the session
store, the websocket hub and the Gemini services into the router.
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/sync/singleflight"
	"lunchgenius/internal/config"
	"lunchgenius/internal/geminiservice"
	"lunchgenius/internal/model"
	"lunchgenius/internal/session"
	"lunchgenius/internal/utility"
)

// MenuAdvisor produces lunch recommendations. It never fails; a degraded
// result carries the fallback list.
type MenuAdvisor interface {
	AnalyzeMenuPreferences(ctx context.Context, history model.MealHistory, weather model.WeatherCondition, loc model.LocationData, apiKey string) geminiservice.RecommendationResult
}

// RestaurantFinder looks up places serving a dish near a location.
type RestaurantFinder interface {
	FindRestaurantsForDish(ctx context.Context, dishName string, loc model.LocationData, apiKey string) geminiservice.PlacesResult
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	cfg *config.Config

	// store holds every visitor's screen state.
	store *session.Store

	// hub pushes state changes to open browser tabs.
	hub *utility.Hub

	// cookies carries the session id between requests.
	cookies *sessions.CookieStore

	advisor MenuAdvisor
	finder  RestaurantFinder

	// flights keeps one outbound AI call per session and operation.
	flights singleflight.Group
}

// New builds the application from its configuration.
func New(cfg *config.Config) *Server {
	hub := utility.NewHub()
	client := geminiservice.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.APIKey, cfg.Gemini.Timeout)

	return &Server{
		port:    cfg.Port,
		cfg:     cfg,
		store:   session.NewStore(cfg.Session.Capacity, cfg.Session.TTL, hub),
		hub:     hub,
		cookies: newCookieStore(cfg),
		advisor: geminiservice.NewRecommender(client),
		finder:  geminiservice.NewPlaceFinder(client),
	}
}

// NewServer initializes the application and returns a configured *http.Server
// with production-ready network timeouts.
func NewServer(cfg *config.Config) *http.Server {
	newApp := New(cfg)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", newApp.port),
		Handler:     newApp.RegisterRoutes(),
		IdleTimeout: time.Minute,      // Time to wait for the next request on keep-alive connections.
		ReadTimeout: 10 * time.Second, // Maximum duration for reading the entire request.
		// Analysis waits on the AI service, so writes get the AI timeout on top.
		WriteTimeout: 30*time.Second + cfg.Gemini.Timeout,
	}

	return server
}
