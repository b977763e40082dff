// Package facebook talks to the Facebook Login dialog, the OAuth token endpoint
// and the Graph API. It implements provider.OAuthProvider and provider.GraphProvider.
package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-fb-ads-gateway/internal/config"
	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"golang.org/x/oauth2"
)

const (
	DefaultGraphBaseURL  = "https://graph.facebook.com"
	DefaultDialogBaseURL = "https://www.facebook.com"
	DefaultGraphVersion  = "v23.0"
	DefaultTimeout       = 15 * time.Second

	// Graph error code for an invalid or expired access token
	graphErrorCodeInvalidToken = 190
)

type Config struct {
	AppID         string
	AppSecret     string
	RedirectURI   string
	Scopes        []string
	GraphVersion  string
	GraphBaseURL  string
	DialogBaseURL string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// ConfigFrom maps the process configuration onto a client Config.
func ConfigFrom(c config.FacebookConfig) Config {
	return Config{
		AppID:         c.GetFacebookAppID(),
		AppSecret:     c.GetFacebookAppSecret(),
		RedirectURI:   c.GetFacebookRedirectURI(),
		Scopes:        c.GetRequestedScopes(),
		GraphVersion:  c.GetGraphVersion(),
		GraphBaseURL:  c.GetGraphBaseURL(),
		DialogBaseURL: c.GetDialogBaseURL(),
		Timeout:       c.GetUpstreamTimeout(),
	}
}

type Client struct {
	cfg        Config
	oauth      *oauth2.Config
	httpClient *http.Client
	nowTime    func() time.Time
}

var (
	_ provider.OAuthProvider = (*Client)(nil)
	_ provider.GraphProvider = (*Client)(nil)
)

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

func New(cfg Config, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.RedirectURI) == "" {
		return nil, errors.New("[facebook New] redirect URI is required")
	}
	if cfg.GraphVersion == "" {
		cfg.GraphVersion = DefaultGraphVersion
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = DefaultGraphBaseURL
	}
	if cfg.DialogBaseURL == "" {
		cfg.DialogBaseURL = DefaultDialogBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.GraphBaseURL = strings.TrimRight(cfg.GraphBaseURL, "/")
	cfg.DialogBaseURL = strings.TrimRight(cfg.DialogBaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       append([]string(nil), cfg.Scopes...),
			Endpoint: oauth2.Endpoint{
				AuthURL:   fmt.Sprintf("%s/%s/dialog/oauth", cfg.DialogBaseURL, cfg.GraphVersion),
				TokenURL:  fmt.Sprintf("%s/%s/oauth/access_token", cfg.GraphBaseURL, cfg.GraphVersion),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// withHTTPClient makes x/oauth2 use our client (timeouts, test servers).
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// appSecretProof is the HMAC-SHA256 of the access token keyed by the app secret.
// Graph rejects calls without it when "Require App Secret" is enabled for the app.
func (c *Client) appSecretProof(cred *provider.Credential) string {
	if c.cfg.AppSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.AppSecret))
	mac.Write(cred.Bytes())
	return hex.EncodeToString(mac.Sum(nil))
}

// classify maps transport failures onto the gateway taxonomy. Deadlines become
// ErrUpstreamTimeout, everything else becomes fallback.
func classify(err error, fallback error, format string, args ...any) error {
	if isTimeout(err) {
		return apperrors.Wrapf(apperrors.ErrUpstreamTimeout, format, args...)
	}
	// url.Error repeats the request URL, which carries appsecret_proof
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return fmt.Errorf(format+": %w: %v", append(args, fallback, err)...)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
