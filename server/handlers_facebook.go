package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-fb-ads-gateway/provider"
)

type loginURLRequest struct {
	UserID string `json:"user_id"`
}

type loginURLResponse struct {
	Success bool `json:"success"`
	Data    struct {
		LoginURL string `json:"login_url"`
	} `json:"data"`
}

// LoginURLHandler starts a Facebook connection for a platform user.
func (s *Server) LoginURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginURLRequest
		decodeBody(r, &req)
		if strings.TrimSpace(req.UserID) == "" {
			writeFailure(w, http.StatusBadRequest, "user_id is required")
			return
		}

		loginURL, err := s.auth.LoginURL(r.Context(), req.UserID)
		if err != nil {
			writeServiceError(w, r, err, "user_id is required", false)
			return
		}

		var resp loginURLResponse
		resp.Success = true
		resp.Data.LoginURL = loginURL
		writeJSON(w, http.StatusOK, resp)
	}
}

type callbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type facebookUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type callbackData struct {
	UserID         string               `json:"user_id"`
	FacebookUser   facebookUser         `json:"facebook_user"`
	EncryptedToken string               `json:"encrypted_token"`
	AdAccounts     []provider.AdAccount `json:"ad_accounts"`
}

type callbackResponse struct {
	Success bool         `json:"success"`
	Data    callbackData `json:"data"`
}

// CallbackHandler completes the authorization code flow. A timeout while
// exchanging the code is reported as not retryable: the code may already be spent.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req callbackRequest
		decodeBody(r, &req)
		if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.State) == "" {
			writeFailure(w, http.StatusBadRequest, "code and state are required")
			return
		}

		result, err := s.auth.HandleCallback(r.Context(), req.Code, req.State)
		if err != nil {
			writeServiceError(w, r, err, "code and state are required", false)
			return
		}

		writeJSON(w, http.StatusOK, callbackResponse{
			Success: true,
			Data: callbackData{
				UserID: result.UserID,
				FacebookUser: facebookUser{
					ID:          result.Identity.ProviderUserID,
					Name:        result.Identity.DisplayName,
					Permissions: result.Identity.GrantedScopes,
				},
				EncryptedToken: result.SealedCredential,
				AdAccounts:     result.AdAccounts,
			},
		})
	}
}

type campaignsRequest struct {
	AdAccountID    string `json:"ad_account_id"`
	EncryptedToken string `json:"encrypted_token"`
}

type campaignsResponse struct {
	Success   bool                `json:"success"`
	Campaigns []provider.Campaign `json:"campaigns"`
}

func (s *Server) CampaignsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req campaignsRequest
		decodeBody(r, &req)
		if strings.TrimSpace(req.AdAccountID) == "" {
			writeFailure(w, http.StatusBadRequest, "ad_account_id is required")
			return
		}

		campaigns, err := s.ads.Campaigns(r.Context(), req.EncryptedToken, req.AdAccountID)
		if err != nil {
			writeServiceError(w, r, err, "ad_account_id is invalid", true)
			return
		}
		writeJSON(w, http.StatusOK, campaignsResponse{Success: true, Campaigns: campaigns})
	}
}

type campaignAdsRequest struct {
	AdAccountID    string `json:"ad_account_id"`
	CampaignID     string `json:"campaign_id"`
	EncryptedToken string `json:"encrypted_token"`
}

type campaignAdsResponse struct {
	Success bool          `json:"success"`
	Ads     []provider.Ad `json:"ads"`
}

func (s *Server) CampaignAdsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req campaignAdsRequest
		decodeBody(r, &req)
		if strings.TrimSpace(req.CampaignID) == "" {
			writeFailure(w, http.StatusBadRequest, "campaign_id is required")
			return
		}

		ads, err := s.ads.CampaignAds(r.Context(), req.EncryptedToken, req.CampaignID)
		if err != nil {
			writeServiceError(w, r, err, "campaign_id is invalid", true)
			return
		}
		writeJSON(w, http.StatusOK, campaignAdsResponse{Success: true, Ads: ads})
	}
}

type adAccountsRequest struct {
	EncryptedToken string `json:"encrypted_token"`
}

type adAccountsResponse struct {
	Success    bool                 `json:"success"`
	AdAccounts []provider.AdAccount `json:"ad_accounts"`
}

func (s *Server) AdAccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adAccountsRequest
		decodeBody(r, &req)

		accounts, err := s.ads.AdAccounts(r.Context(), req.EncryptedToken)
		if err != nil {
			writeServiceError(w, r, err, msgInvalidCredential, true)
			return
		}
		writeJSON(w, http.StatusOK, adAccountsResponse{Success: true, AdAccounts: accounts})
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Service: s.config.GetAppName()})
	}
}
