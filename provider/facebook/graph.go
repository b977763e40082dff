package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 10 << 20

type graphPage struct {
	Data   []json.RawMessage `json:"data"`
	Paging *struct {
		Cursors struct {
			Before string `json:"before"`
			After  string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// FetchPage reads one page of a Graph edge. The next cursor is reported only
// while Graph includes a "next" link.
func (c *Client) FetchPage(ctx context.Context, cred *provider.Credential, req provider.PageRequest) (provider.Page, error) {
	q := url.Values{}
	if len(req.Fields) > 0 {
		q.Set("fields", strings.Join(req.Fields, ","))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.After != "" {
		q.Set("after", req.After)
	}

	var page graphPage
	if err := c.getJSON(ctx, cred, req.Edge, q, &page); err != nil {
		return provider.Page{}, err
	}

	out := provider.Page{Data: page.Data}
	if out.Data == nil {
		out.Data = []json.RawMessage{}
	}
	if page.Paging != nil && page.Paging.Next != "" {
		out.NextCursor = page.Paging.Cursors.After
	}
	return out, nil
}

// getJSON performs an authenticated GET against the Graph API and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, cred *provider.Credential, edge string, q url.Values, out any) error {
	if cred.Empty() {
		return apperrors.Wrapf(apperrors.ErrInvalidCredential, "[facebook graph] no access token")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if proof := c.appSecretProof(cred); proof != "" {
		q.Set("appsecret_proof", proof)
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.cfg.GraphBaseURL, c.cfg.GraphVersion, strings.TrimLeft(edge, "/"))
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInternal, "[facebook graph] build request for %s", edge)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Reveal(), TokenType: "Bearer"})
	httpClient := oauth2.NewClient(c.withHTTPClient(ctx), tokenSource)

	resp, err := httpClient.Do(req)
	if err != nil {
		return classify(err, apperrors.ErrUpstreamFetchFailed, "[facebook graph] GET %s", edge)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classify(err, apperrors.ErrUpstreamFetchFailed, "[facebook graph] read %s", edge)
	}

	if resp.StatusCode != http.StatusOK {
		return graphFailure(edge, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("[facebook graph] decode %s: %w: %v", edge, apperrors.ErrUpstreamFetchFailed, err)
	}
	return nil
}

func graphFailure(edge string, status int, body []byte) error {
	var gerr graphError
	_ = json.Unmarshal(body, &gerr)

	if gerr.Error.Code == graphErrorCodeInvalidToken {
		return fmt.Errorf("[facebook graph] GET %s: %w: token rejected (fbtrace_id=%s)",
			edge, apperrors.ErrInvalidCredential, gerr.Error.FBTraceID)
	}
	return fmt.Errorf("[facebook graph] GET %s: %w: status %d code %d type %q (fbtrace_id=%s)",
		edge, apperrors.ErrUpstreamFetchFailed, status, gerr.Error.Code, gerr.Error.Type, gerr.Error.FBTraceID)
}
