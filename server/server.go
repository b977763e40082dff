package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-fb-ads-gateway/auth"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/config"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"github.com/rs/zerolog/log"
)

// Authorizer runs the Facebook authorization code flow.
type Authorizer interface {
	LoginURL(ctx context.Context, userID string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*auth.CallbackResult, error)
}

// AdsReader reads Graph collections on behalf of a sealed credential.
type AdsReader interface {
	AdAccounts(ctx context.Context, sealed string) ([]provider.AdAccount, error)
	Campaigns(ctx context.Context, sealed, adAccountID string) ([]provider.Campaign, error)
	CampaignAds(ctx context.Context, sealed, campaignID string) ([]provider.Ad, error)
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	auth    Authorizer
	ads     AdsReader
	metrics http.Handler
}

func New(config config.Config, authorizer Authorizer, ads AdsReader, metricsHandler http.Handler) (*Server, error) {
	if authorizer == nil {
		return nil, fmt.Errorf("[Server New] authorizer is required")
	}
	if ads == nil {
		return nil, fmt.Errorf("[Server New] ads reader is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		auth:    authorizer,
		ads:     ads,
		metrics: metricsHandler,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
	}
}
