package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// OAuth
	s.RegisterRouteFunc("POST "+RouteFacebookLoginURL, ChainMiddleware(s.LoginURLHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteFacebookCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// Graph reads
	s.RegisterRouteFunc("POST "+RouteFacebookCampaigns, ChainMiddleware(s.CampaignsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteFacebookCampaignAds, ChainMiddleware(s.CampaignAdsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteFacebookAdAccounts, ChainMiddleware(s.AdAccountsHandler(), s.APIMiddleware()...))

	// Browser preflight for every API route
	s.RegisterRouteFunc("OPTIONS /api/facebook/", ChainMiddleware(notFoundHandler, s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics)
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, "Not found")
}
