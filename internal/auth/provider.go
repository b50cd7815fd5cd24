package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// ProviderUser is the slice of the provider's userinfo response we keep.
// The subject claim is the stable identifier; everything else is profile
// data that may be absent depending on what the user shared.
type ProviderUser struct {
	Subject         string `json:"sub"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Provider wraps golang.org/x/oauth2 for the hosted login service's
// authorization-code flow. The endpoints are configuration, not code: the
// app works against any OpenID-style provider that issues a subject claim
// and a userinfo endpoint.
type Provider struct {
	config      *oauth2.Config
	userinfoURL string
}

// ProviderConfig carries the provider registration values, normally read
// from the environment in main.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserinfoURL  string
	CallbackURL  string
}

// NewProvider creates a Provider from the registered credentials.
// CallbackURL must match the redirect URL registered with the provider
// exactly.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userinfoURL: cfg.UserinfoURL,
	}
}

// AuthURL returns the provider page to redirect the user to. The state is a
// random nonce stored in a cookie beforehand; the callback handler checks
// it to block CSRF-initiated logins.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the user's profile:
// code → access token (server to server), then token → userinfo.
func (p *Provider) Exchange(ctx context.Context, code string) (*ProviderUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// config.Client returns an http.Client that attaches the bearer token
	// to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: userinfo endpoint returned status %d", resp.StatusCode)
	}

	var user ProviderUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding userinfo response: %w", err)
	}

	if user.Subject == "" {
		return nil, fmt.Errorf("auth: provider returned a user with no subject")
	}

	return &user, nil
}
