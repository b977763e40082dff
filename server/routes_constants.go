package server

// Route path constants
const (
	// Facebook OAuth
	RouteFacebookLoginURL = "/api/facebook/login-url"
	RouteFacebookCallback = "/api/facebook/callback"

	// Facebook Graph reads
	RouteFacebookCampaigns   = "/api/facebook/get-campaigns"
	RouteFacebookCampaignAds = "/api/facebook/get-campaign-ads"
	RouteFacebookAdAccounts  = "/api/facebook/get-ad-accounts"

	// Operations
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
