// Package graph reads ad accounts, campaigns and ads from the Graph API on behalf
// of a sealed credential. Every read follows cursor pagination to the end and
// returns the whole collection or an error, never a partial list.
package graph

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/metrics"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxPages = 500
	pageSize        = 100

	objectAdAccounts = "ad_accounts"
	objectCampaigns  = "campaigns"
	objectAds        = "ads"
)

var (
	adAccountFields = []string{"id", "account_id", "name", "account_status", "currency", "timezone_name"}
	campaignFields  = []string{"id", "name", "status", "effective_status", "objective", "daily_budget", "lifetime_budget", "created_time", "updated_time"}
	adFields        = []string{"id", "name", "status", "effective_status", "adset_id", "campaign_id", "creative{id,name,title,body,thumbnail_url,image_url}", "created_time"}

	// Graph object ids are numeric; letters and underscore cover the act_ prefix.
	validID = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Opener turns a sealed credential back into the cleartext token.
type Opener interface {
	Open(sealed string) ([]byte, error)
}

type Client struct {
	opener   Opener
	provider provider.GraphProvider
	maxPages int
	nowTime  func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithMaxPages caps how many pages a single read may follow.
func WithMaxPages(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func New(opener Opener, graphProvider provider.GraphProvider, options ...ClientOption) *Client {
	c := &Client{
		opener:   opener,
		provider: graphProvider,
		maxPages: DefaultMaxPages,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// AdAccounts lists the ad accounts visible to the sealed credential.
func (c *Client) AdAccounts(ctx context.Context, sealed string) ([]provider.AdAccount, error) {
	cred, err := c.open(sealed)
	if err != nil {
		return nil, err
	}
	defer cred.Destroy()
	return c.ListAdAccounts(ctx, cred)
}

// ListAdAccounts is AdAccounts for a credential the caller already holds in the clear.
func (c *Client) ListAdAccounts(ctx context.Context, cred *provider.Credential) ([]provider.AdAccount, error) {
	req := provider.PageRequest{Edge: "me/adaccounts", Fields: adAccountFields, Limit: pageSize}
	return collect[provider.AdAccount](ctx, c, cred, objectAdAccounts, req)
}

// Campaigns lists every campaign under adAccountID. The id may be given with or
// without the act_ prefix.
func (c *Client) Campaigns(ctx context.Context, sealed, adAccountID string) ([]provider.Campaign, error) {
	accountID, err := NormalizeAdAccountID(adAccountID)
	if err != nil {
		return nil, err
	}
	cred, err := c.open(sealed)
	if err != nil {
		return nil, err
	}
	defer cred.Destroy()

	req := provider.PageRequest{Edge: accountID + "/campaigns", Fields: campaignFields, Limit: pageSize}
	return collect[provider.Campaign](ctx, c, cred, objectCampaigns, req)
}

// CampaignAds lists every ad in campaignID with its creative.
func (c *Client) CampaignAds(ctx context.Context, sealed, campaignID string) ([]provider.Ad, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[graph CampaignAds] campaign id is required")
	}
	if !validID.MatchString(campaignID) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[graph CampaignAds] malformed campaign id")
	}
	cred, err := c.open(sealed)
	if err != nil {
		return nil, err
	}
	defer cred.Destroy()

	req := provider.PageRequest{Edge: campaignID + "/ads", Fields: adFields, Limit: pageSize}
	return collect[provider.Ad](ctx, c, cred, objectAds, req)
}

// NormalizeAdAccountID returns id in the act_<id> form Graph expects on account edges.
func NormalizeAdAccountID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "[graph] ad account id is required")
	}
	if !validID.MatchString(id) {
		return "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "[graph] malformed ad account id")
	}
	if !strings.HasPrefix(id, "act_") {
		id = "act_" + id
	}
	if id == "act_" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "[graph] malformed ad account id")
	}
	return id, nil
}

func (c *Client) open(sealed string) (*provider.Credential, error) {
	if strings.TrimSpace(sealed) == "" {
		return nil, apperrors.ErrInvalidCredential
	}
	token, err := c.opener.Open(sealed)
	if err != nil || len(token) == 0 {
		return nil, apperrors.ErrInvalidCredential
	}
	cred := provider.NewCredential(token, c.nowTime())
	for i := range token {
		token[i] = 0
	}
	return cred, nil
}

// collect follows the after cursor from the first page until the provider reports
// no more pages, fetching each page exactly once.
func collect[T any](ctx context.Context, c *Client, cred *provider.Credential, object string, req provider.PageRequest) ([]T, error) {
	out := []T{}
	seen := map[string]struct{}{}

	for pages := 0; ; pages++ {
		if pages >= c.maxPages {
			metrics.IncGraphRequest(object, metrics.OutcomeUpstreamFailed)
			return nil, apperrors.Wrapf(apperrors.ErrUpstreamFetchFailed, "[graph %s] more than %d pages", object, c.maxPages)
		}

		page, err := c.provider.FetchPage(ctx, cred, req)
		if err != nil {
			metrics.IncGraphRequest(object, outcomeFor(err))
			log.Warn().Err(err).Str("object", object).Int("page", pages+1).Msg("graph fetch failed")
			return nil, err
		}
		metrics.IncGraphPage(object)

		for _, raw := range page.Data {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				metrics.IncGraphRequest(object, metrics.OutcomeUpstreamFailed)
				return nil, apperrors.Wrapf(apperrors.ErrUpstreamFetchFailed, "[graph %s] decode record on page %d", object, pages+1)
			}
			out = append(out, item)
		}

		if !page.HasMore() {
			break
		}
		if _, dup := seen[page.NextCursor]; dup {
			metrics.IncGraphRequest(object, metrics.OutcomeUpstreamFailed)
			return nil, apperrors.Wrapf(apperrors.ErrUpstreamFetchFailed, "[graph %s] cursor repeated on page %d", object, pages+1)
		}
		seen[page.NextCursor] = struct{}{}
		req.After = page.NextCursor
	}

	metrics.IncGraphRequest(object, metrics.OutcomeOK)
	return out, nil
}

func outcomeFor(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidCredential):
		return metrics.OutcomeInvalidCredential
	case apperrors.Is(err, apperrors.ErrUpstreamTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeUpstreamFailed
	}
}
