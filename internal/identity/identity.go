package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"fyne.io/fyne/v2"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// SecretStore abstracts the OS keyring so the manager stays testable.
type SecretStore interface {
	Get(service, user string) (string, error)
	Set(service, user, secret string) error
}

// SystemKeyring is the production SecretStore backed by the OS keyring.
type SystemKeyring struct{}

func (SystemKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (SystemKeyring) Set(service, user, secret string) error {
	return keyring.Set(service, user, secret)
}

// Manager owns the OAuth credential lifecycle: client configuration from
// preferences, the client secret and the token from the keyring, silent
// refresh, and the interactive browser flow over a loopback redirect.
//
// It satisfies the directory TokenProvider contract: with interactive=false
// it never opens a browser and errors when no credential exists.
type Manager struct {
	Prefs   fyne.Preferences
	Secrets SecretStore

	// OpenURL launches the system browser for the interactive flow.
	// Wired to fyne.App.OpenURL in production.
	OpenURL func(*url.URL) error
}

// NewManager returns a manager bound to the OS keyring.
func NewManager(prefs fyne.Preferences, openURL func(*url.URL) error) *Manager {
	return &Manager{
		Prefs:   prefs,
		Secrets: SystemKeyring{},
		OpenURL: openURL,
	}
}

// Token returns a usable OAuth token. The silent path loads the stored
// token and refreshes it through the configured endpoint when expired.
// The interactive path runs the full browser authorization.
func (m *Manager) Token(ctx context.Context, interactive bool) (*oauth2.Token, error) {
	conf, err := m.oauthConfig()
	if err != nil {
		return nil, err
	}

	stored, err := m.loadToken()
	if err == nil && stored != nil {
		if stored.Valid() {
			return stored, nil
		}
		refreshed, refreshErr := conf.TokenSource(ctx, stored).Token()
		if refreshErr == nil {
			if refreshed.AccessToken != stored.AccessToken {
				slog.Info(config.MsgTokenRefreshed, config.LogKeyComponent, config.CompIdentity)
				m.saveToken(refreshed)
			}
			return refreshed, nil
		}
		if !interactive {
			return nil, fmt.Errorf("%s: %w", config.ErrNoCredential, refreshErr)
		}
	} else if !interactive {
		return nil, errors.New(config.ErrNoCredential)
	}

	return m.authorize(ctx, conf)
}

// SignedIn reports whether a stored credential exists, without touching the
// network. The settings UI uses it to decide between sign-in and status.
func (m *Manager) SignedIn() bool {
	tok, err := m.loadToken()
	return err == nil && tok != nil
}

// authorize runs the interactive loopback flow: open the consent page in the
// browser, wait for the redirect, verify the state, exchange the code.
func (m *Manager) authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	log := slog.With(config.LogKeyComponent, config.CompIdentity)

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	authURL, err := url.Parse(conf.AuthCodeURL(state, oauth2.AccessTypeOffline))
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, config.MsgAuthFlowStart, config.LogKeyURL, authURL.Host)
	if err := m.OpenURL(authURL); err != nil {
		return nil, err
	}

	flowCtx, cancel := context.WithTimeout(ctx, config.AuthFlowTimeout)
	defer cancel()

	listener := newRedirectListener(m.redirectPort())
	res, err := listener.Listen(flowCtx)
	if err != nil {
		return nil, err
	}
	if res.state != state {
		return nil, errors.New(config.ErrStateMismatch)
	}
	if res.code == "" {
		return nil, errors.New(config.ErrAuthDenied)
	}

	token, err := conf.Exchange(flowCtx, res.code)
	if err != nil {
		return nil, err
	}

	m.saveToken(token)
	log.InfoContext(ctx, config.MsgAuthFlowDone)
	return token, nil
}

// oauthConfig assembles the oauth2 client configuration from preferences
// and the keyring. The client ID is mandatory; a missing secret is passed
// through empty because public loopback clients may omit it.
func (m *Manager) oauthConfig() (*oauth2.Config, error) {
	clientID := m.Prefs.String(config.PrefOAuthClientID)
	if clientID == "" {
		return nil, errors.New(config.ErrClientIDMissing)
	}

	secret, err := m.Secrets.Get(config.KeyringService, config.KeyringUserOAuthSecret)
	if err != nil {
		slog.Debug(config.MsgSecretFail,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyError, err,
		)
		secret = ""
	}

	redirect := url.URL{
		Scheme: config.SchemeHTTP,
		Host:   config.LocalhostBindAddr + config.AddrSeparator + m.redirectPort(),
		Path:   config.OAuthCallbackPath,
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect.String(),
		Scopes: []string{
			config.ScopeContacts,
			config.ScopeOtherContacts,
			config.ScopeCalendar,
		},
	}, nil
}

func (m *Manager) redirectPort() string {
	return m.Prefs.StringWithFallback(config.PrefRedirectPort, config.DefaultRedirectPort)
}

// loadToken reads the stored token from the keyring. A missing entry is an
// error to the caller, like any other unusable credential.
func (m *Manager) loadToken() (*oauth2.Token, error) {
	raw, err := m.Secrets.Get(config.KeyringService, config.KeyringUserToken)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTokenDecode, err)
	}
	return &tok, nil
}

// saveToken persists the token in the keyring, best effort: a keyring
// failure costs a re-authorization later, not the current operation.
func (m *Manager) saveToken(tok *oauth2.Token) {
	raw, err := json.Marshal(tok)
	if err != nil {
		slog.Warn(config.ErrTokenEncode,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyError, err,
		)
		return
	}
	if err := m.Secrets.Set(config.KeyringService, config.KeyringUserToken, string(raw)); err != nil {
		slog.Warn(config.ErrTokenEncode,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyError, err,
		)
	}
}

// randomState produces the CSRF token for the authorization round trip.
func randomState() (string, error) {
	buf := make([]byte, config.OAuthStateLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
