package providerfake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
)

var (
	_ provider.OAuthProvider = (*FakeOAuthProvider)(nil)
	_ provider.GraphProvider = (*FakeGraphProvider)(nil)
)

// FakeOAuthProvider hands out a fixed token for known codes and records what it issued
// so tests can check the credential was destroyed.
type FakeOAuthProvider struct {
	lock        sync.Mutex
	codes       map[string]string
	identity    provider.Identity
	exchangeErr error
	identityErr error
	issued      []*provider.Credential
	exchanges   int
}

func NewFakeOAuthProvider() *FakeOAuthProvider {
	return &FakeOAuthProvider{
		codes: make(map[string]string),
	}
}

// AddCode registers an authorization code that exchanges to token.
func (p *FakeOAuthProvider) AddCode(code, token string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.codes[code] = token
}

func (p *FakeOAuthProvider) SetIdentity(identity provider.Identity) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.identity = identity
}

func (p *FakeOAuthProvider) SetExchangeError(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.exchangeErr = err
}

func (p *FakeOAuthProvider) SetIdentityError(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.identityErr = err
}

func (p *FakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://www.facebook.com/v23.0/dialog/oauth?client_id=fake&state=" + url.QueryEscape(state)
}

func (p *FakeOAuthProvider) Exchange(_ context.Context, code string) (*provider.Credential, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.exchanges++
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	token, ok := p.codes[code]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[FakeOAuthProvider] unknown code")
	}
	delete(p.codes, code)
	cred := provider.NewCredential([]byte(token), time.Now())
	p.issued = append(p.issued, cred)
	return cred, nil
}

func (p *FakeOAuthProvider) Identity(_ context.Context, cred *provider.Credential) (provider.Identity, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if cred.Empty() {
		return provider.Identity{}, apperrors.ErrInvalidCredential
	}
	if p.identityErr != nil {
		return provider.Identity{}, p.identityErr
	}
	identity := p.identity
	identity.GrantedScopes = append([]string{}, p.identity.GrantedScopes...)
	return identity, nil
}

// Exchanges reports how many times Exchange was called.
func (p *FakeOAuthProvider) Exchanges() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.exchanges
}

// AllDestroyed reports whether every credential handed out has been destroyed.
func (p *FakeOAuthProvider) AllDestroyed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, cred := range p.issued {
		if !cred.Empty() {
			return false
		}
	}
	return true
}

// FakeGraphProvider serves pre-built pages per edge. Cursors are the page index.
type FakeGraphProvider struct {
	lock     sync.Mutex
	pages    map[string][][]json.RawMessage
	failAt   map[string]int
	failErr  map[string]error
	fetches  map[string][]string
	tokens   []string
	alwaysOn bool
}

func NewFakeGraphProvider() *FakeGraphProvider {
	return &FakeGraphProvider{
		pages:   make(map[string][][]json.RawMessage),
		failAt:  make(map[string]int),
		failErr: make(map[string]error),
		fetches: make(map[string][]string),
	}
}

// SetPages registers the pages returned for edge, each page a slice of records.
func (g *FakeGraphProvider) SetPages(edge string, pages ...[]any) {
	g.lock.Lock()
	defer g.lock.Unlock()
	raw := make([][]json.RawMessage, 0, len(pages))
	for _, page := range pages {
		records := make([]json.RawMessage, 0, len(page))
		for _, record := range page {
			b, err := json.Marshal(record)
			if err != nil {
				panic(fmt.Sprintf("providerfake: marshal record: %v", err))
			}
			records = append(records, b)
		}
		raw = append(raw, records)
	}
	g.pages[edge] = raw
}

// FailPage makes the fetch of page index (zero based) on edge return err.
func (g *FakeGraphProvider) FailPage(edge string, index int, err error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.failAt[edge] = index
	g.failErr[edge] = err
}

// LoopCursor makes the last page of every edge point back at itself.
func (g *FakeGraphProvider) LoopCursor() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.alwaysOn = true
}

func (g *FakeGraphProvider) FetchPage(_ context.Context, cred *provider.Credential, req provider.PageRequest) (provider.Page, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if cred.Empty() {
		return provider.Page{}, apperrors.ErrInvalidCredential
	}
	g.tokens = append(g.tokens, cred.Reveal())
	g.fetches[req.Edge] = append(g.fetches[req.Edge], req.After)

	index := 0
	if req.After != "" {
		i, err := strconv.Atoi(req.After)
		if err != nil {
			return provider.Page{}, apperrors.Wrapf(apperrors.ErrUpstreamFetchFailed, "[FakeGraphProvider] bad cursor %q", req.After)
		}
		index = i
	}

	if failAt, ok := g.failAt[req.Edge]; ok && failAt == index {
		return provider.Page{}, g.failErr[req.Edge]
	}

	pages := g.pages[req.Edge]
	if index >= len(pages) {
		return provider.Page{Data: []json.RawMessage{}}, nil
	}

	page := provider.Page{Data: pages[index]}
	switch {
	case index+1 < len(pages):
		page.NextCursor = strconv.Itoa(index + 1)
	case g.alwaysOn:
		page.NextCursor = strconv.Itoa(index)
	}
	return page, nil
}

// Fetches returns the cursors requested for edge, in call order.
func (g *FakeGraphProvider) Fetches(edge string) []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]string(nil), g.fetches[edge]...)
}

// Tokens returns the cleartext tokens the fake was called with.
func (g *FakeGraphProvider) Tokens() []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]string(nil), g.tokens...)
}
