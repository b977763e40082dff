package config

import (
	"strings"
	"time"
)

type FacebookConfig interface {
	GetFacebookAppID() string
	GetFacebookAppSecret() string
	GetFacebookRedirectURI() string
	GetRequestedScopes() []string
	GetRequiredScopes() []string
	GetGraphVersion() string
	GetGraphBaseURL() string
	GetDialogBaseURL() string
	GetUpstreamTimeout() time.Duration
	GetGraphMaxPages() int
}

type Facebook struct {
	AppID           string        `env:"FACEBOOK_APP_ID"`
	AppSecret       string        `env:"FACEBOOK_APP_SECRET"`
	RedirectURI     string        `env:"FACEBOOK_REDIRECT_URI" envDefault:"http://localhost:3000/facebook/callback"`
	Scopes          []string      `env:"FACEBOOK_SCOPES" envSeparator:","`
	RequiredScopes  []string      `env:"FACEBOOK_REQUIRED_SCOPES" envSeparator:"," envDefault:"ads_read,business_management"`
	GraphVersion    string        `env:"FACEBOOK_GRAPH_VERSION" envDefault:"v23.0"`
	GraphBaseURL    string        `env:"FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com"`
	DialogBaseURL   string        `env:"FACEBOOK_DIALOG_URL" envDefault:"https://www.facebook.com"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	GraphMaxPages   int           `env:"FACEBOOK_GRAPH_MAX_PAGES" envDefault:"500"`
}

var _ FacebookConfig = Facebook{}

func (f Facebook) GetFacebookAppID() string {
	return f.AppID
}

func (f Facebook) GetFacebookAppSecret() string {
	return f.AppSecret
}

func (f Facebook) GetFacebookRedirectURI() string {
	return f.RedirectURI
}

// GetRequestedScopes returns the scopes placed on the login URL. Defaults to the
// required scopes when FACEBOOK_SCOPES is unset.
func (f Facebook) GetRequestedScopes() []string {
	scopes := cleanList(f.Scopes)
	if len(scopes) == 0 {
		return f.GetRequiredScopes()
	}
	return scopes
}

func (f Facebook) GetRequiredScopes() []string {
	return cleanList(f.RequiredScopes)
}

func (f Facebook) GetGraphVersion() string {
	return f.GraphVersion
}

func (f Facebook) GetGraphBaseURL() string {
	return strings.TrimRight(f.GraphBaseURL, "/")
}

func (f Facebook) GetDialogBaseURL() string {
	return strings.TrimRight(f.DialogBaseURL, "/")
}

func (f Facebook) GetUpstreamTimeout() time.Duration {
	return f.UpstreamTimeout
}

func (f Facebook) GetGraphMaxPages() int {
	return f.GraphMaxPages
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
