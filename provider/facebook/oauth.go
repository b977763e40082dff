package facebook

import (
	"context"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"golang.org/x/sync/errgroup"
)

// AuthCodeURL builds the Facebook Login dialog URL.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades code for a user access token. The call is made once; a code
// that timed out may already be spent on Facebook's side, so the error tells the
// caller to restart the login instead of retrying.
func (c *Client) Exchange(ctx context.Context, code string) (*provider.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	token, err := c.oauth.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, classify(err, apperrors.ErrExchangeFailed, "[facebook Exchange] token endpoint")
	}
	if token.AccessToken == "" {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[facebook Exchange] empty access token")
	}
	return provider.NewCredential([]byte(token.AccessToken), c.nowTime()), nil
}

type meResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type permissionsResponse struct {
	Data []struct {
		Permission string `json:"permission"`
		Status     string `json:"status"`
	} `json:"data"`
}

// Identity fetches /me and /me/permissions concurrently.
func (c *Client) Identity(ctx context.Context, cred *provider.Credential) (provider.Identity, error) {
	var (
		me    meResponse
		perms permissionsResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := url.Values{"fields": {"id,name"}}
		return c.getJSON(gctx, cred, "me", q, &me)
	})
	g.Go(func() error {
		q := url.Values{"limit": {"500"}}
		return c.getJSON(gctx, cred, "me/permissions", q, &perms)
	})
	if err := g.Wait(); err != nil {
		return provider.Identity{}, apperrors.Wrapf(err, "[facebook Identity]")
	}

	identity := provider.Identity{
		ProviderUserID: me.ID,
		DisplayName:    me.Name,
		GrantedScopes:  []string{},
	}
	for _, p := range perms.Data {
		scope := strings.TrimSpace(p.Permission)
		if scope == "" {
			continue
		}
		switch strings.ToLower(p.Status) {
		case "granted":
			identity.GrantedScopes = append(identity.GrantedScopes, scope)
		default:
			identity.DeclinedScopes = append(identity.DeclinedScopes, scope)
		}
	}
	return identity, nil
}
