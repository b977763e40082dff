package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/metrics"
	"github.com/jrsteele09/go-fb-ads-gateway/oauthstate"
	"github.com/jrsteele09/go-fb-ads-gateway/permissions"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sealer encrypts a cleartext access token into an opaque string.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
}

// AdAccountLister lists ad accounts for a credential held in the clear.
type AdAccountLister interface {
	ListAdAccounts(ctx context.Context, cred *provider.Credential) ([]provider.AdAccount, error)
}

// Deps holds all dependencies for the AuthorizationService
type Deps struct {
	States     oauthstate.Store       // Pending authorization attempts
	Provider   provider.OAuthProvider // Facebook Login and token endpoint
	Gate       *permissions.Gate      // Required scope policy
	Sealer     Sealer                 // Seals the token handed back to the caller
	AdAccounts AdAccountLister        // Ad accounts returned with a successful callback
}

// CallbackResult is what a successful callback hands back. The token only appears sealed.
type CallbackResult struct {
	UserID           string
	Identity         provider.Identity
	SealedCredential string
	AdAccounts       []provider.AdAccount
}

// AuthorizationService runs the Facebook authorization code flow for a platform user.
type AuthorizationService struct {
	deps    Deps
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(deps Deps, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if deps.States == nil {
		return nil, errors.New("[NewAuthorizationService] state store is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("[NewAuthorizationService] OAuth provider is required")
	}
	if deps.Gate == nil {
		return nil, errors.New("[NewAuthorizationService] permission gate is required")
	}
	if deps.Sealer == nil {
		return nil, errors.New("[NewAuthorizationService] sealer is required")
	}
	if deps.AdAccounts == nil {
		return nil, errors.New("[NewAuthorizationService] ad account lister is required")
	}

	as := &AuthorizationService{
		deps:    deps,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// LoginURL records a new pending authorization for userID and returns the
// Facebook Login dialog URL carrying its state.
func (as *AuthorizationService) LoginURL(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.Wrap(apperrors.ErrInvalidRequest, "[AuthorizationService.LoginURL] user id is required")
	}

	state, err := as.deps.States.Issue(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "[AuthorizationService.LoginURL] States.Issue")
	}

	metrics.IncLoginURLIssued()
	log.Debug().Str("user_id", userID).Msg("login url issued")
	return as.deps.Provider.AuthCodeURL(state), nil
}

// HandleCallback completes an authorization attempt. The state is consumed before
// anything else so a replayed callback never reaches Facebook. The cleartext token
// is destroyed on every return path and is only sealed once the grant satisfies
// the permission policy.
func (as *AuthorizationService) HandleCallback(ctx context.Context, code, state string) (*CallbackResult, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		metrics.IncCallback(metrics.OutcomeInvalidRequest)
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[AuthorizationService.HandleCallback] code and state are required")
	}

	userID, err := as.deps.States.Consume(ctx, state)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidState) {
			metrics.IncCallback(metrics.OutcomeInvalidState)
		} else {
			metrics.IncCallback(metrics.OutcomeInternalError)
		}
		return nil, errors.Wrap(err, "[AuthorizationService.HandleCallback] States.Consume")
	}
	logger := log.With().Str("user_id", userID).Logger()

	cred, err := as.deps.Provider.Exchange(ctx, code)
	if err != nil {
		metrics.IncCallback(metrics.OutcomeExchangeFailed)
		logger.Err(err).Msg("authorization code exchange failed")
		return nil, errors.Wrap(err, "[AuthorizationService.HandleCallback] Provider.Exchange")
	}
	defer cred.Destroy()

	identity, err := as.deps.Provider.Identity(ctx, cred)
	if err != nil {
		metrics.IncCallback(metrics.OutcomeUpstreamFailed)
		logger.Err(err).Msg("identity lookup failed")
		return nil, errors.Wrap(upstreamFailure(err), "[AuthorizationService.HandleCallback] Provider.Identity")
	}

	if check := as.deps.Gate.Check(identity.GrantedScopes); !check.Valid {
		metrics.IncCallback(metrics.OutcomeRejected)
		logger.Warn().Strs("missing_permissions", check.Missing).Msg("grant rejected")
		return nil, errors.Wrap(&apperrors.InsufficientPermissionsError{Missing: check.Missing},
			"[AuthorizationService.HandleCallback] Gate.Check")
	}

	adAccounts, err := as.deps.AdAccounts.ListAdAccounts(ctx, cred)
	if err != nil {
		metrics.IncCallback(metrics.OutcomeUpstreamFailed)
		logger.Err(err).Msg("ad account listing failed")
		return nil, errors.Wrap(upstreamFailure(err), "[AuthorizationService.HandleCallback] ListAdAccounts")
	}

	sealed, err := as.deps.Sealer.Seal(cred.Bytes())
	if err != nil {
		metrics.IncCallback(metrics.OutcomeInternalError)
		logger.Err(err).Msg("sealing credential failed")
		return nil, errors.Wrap(apperrors.ErrInternal, "[AuthorizationService.HandleCallback] Sealer.Seal")
	}

	metrics.IncCallback(metrics.OutcomeExchanged)
	logger.Info().
		Str("facebook_user_id", identity.ProviderUserID).
		Int("ad_accounts", len(adAccounts)).
		Dur("token_age", as.nowTime().Sub(cred.ObtainedAt)).
		Msg("facebook account connected")

	return &CallbackResult{
		UserID:           userID,
		Identity:         identity,
		SealedCredential: sealed,
		AdAccounts:       adAccounts,
	}, nil
}

// upstreamFailure reports Facebook rejecting a token it has just issued as a
// failed fetch. The caller of the callback supplied no credential of their own.
func upstreamFailure(err error) error {
	if apperrors.Is(err, apperrors.ErrInvalidCredential) {
		return fmt.Errorf("%w: token rejected after exchange: %v", apperrors.ErrUpstreamFetchFailed, err)
	}
	return err
}
