package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/crm-sheets/internal/settings"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// AuthMode names the identity that owns newly created documents.
type AuthMode string

const (
	// AuthModeService creates documents under the service account.
	AuthModeService AuthMode = "service"
	// AuthModeDelegated creates documents under the end user so quota is charged to them.
	AuthModeDelegated AuthMode = "delegated"
)

// AuthContext describes the identities used for one export.
type AuthContext struct {
	Mode AuthMode
	// WriterIdentity performs the value write and formatting.
	WriterIdentity string
	// OwnerIdentity creates the document. For delegated mode this is the OAuth client id
	// the user consented to, since the user's own address is not part of the token.
	OwnerIdentity string
}

// AuthProvider hands out the clients for one export. Callers never look at settings again.
type AuthProvider interface {
	Context() AuthContext
	// Documents is bound to the owner identity.
	Documents() Documents
	// Spreadsheets is bound to the writer identity.
	Spreadsheets() Spreadsheets
	// Authorize gives the writer identity access to a document the owner just created.
	Authorize(ctx context.Context, fileID string) error
}

// ServiceAuth owns and writes documents as the service account.
type ServiceAuth struct {
	clients Clients
	email   string
}

// NewServiceAuth wraps service account clients.
func NewServiceAuth(clients Clients, email string) *ServiceAuth {
	return &ServiceAuth{clients: clients, email: email}
}

// Context implements AuthProvider.
func (a *ServiceAuth) Context() AuthContext {
	return AuthContext{Mode: AuthModeService, WriterIdentity: a.email, OwnerIdentity: a.email}
}

// Documents implements AuthProvider.
func (a *ServiceAuth) Documents() Documents { return a.clients.Documents }

// Spreadsheets implements AuthProvider.
func (a *ServiceAuth) Spreadsheets() Spreadsheets { return a.clients.Spreadsheets }

// Authorize is a no-op: the creator already writes.
func (a *ServiceAuth) Authorize(context.Context, string) error { return nil }

// DelegatedAuth creates documents as the user. When a service account is configured it
// writes the cells, after the user has shared the document with it.
type DelegatedAuth struct {
	owner        Clients
	writer       Clients
	ownerID      string
	serviceEmail string
}

// NewDelegatedAuth builds a delegated provider. With an empty serviceEmail the user
// identity also writes and no grant is made.
func NewDelegatedAuth(owner Clients, ownerID string, writer Clients, serviceEmail string) *DelegatedAuth {
	if serviceEmail == "" {
		writer = owner
	}
	return &DelegatedAuth{
		owner:        owner,
		writer:       writer,
		ownerID:      ownerID,
		serviceEmail: serviceEmail,
	}
}

// Context implements AuthProvider.
func (a *DelegatedAuth) Context() AuthContext {
	writer := a.serviceEmail
	if writer == "" {
		writer = a.ownerID
	}
	return AuthContext{Mode: AuthModeDelegated, WriterIdentity: writer, OwnerIdentity: a.ownerID}
}

// Documents implements AuthProvider.
func (a *DelegatedAuth) Documents() Documents { return a.owner.Documents }

// Spreadsheets implements AuthProvider.
func (a *DelegatedAuth) Spreadsheets() Spreadsheets { return a.writer.Spreadsheets }

// Authorize grants the service account writer access on the document.
func (a *DelegatedAuth) Authorize(ctx context.Context, fileID string) error {
	if a.serviceEmail == "" {
		return nil
	}
	if err := a.owner.Documents.GrantWriter(ctx, fileID, a.serviceEmail); err != nil {
		return fmt.Errorf("%w: %s on %s: %w", ErrShareFailed, a.serviceEmail, fileID, err)
	}
	return nil
}

// ClientFactory turns credential material into API clients.
type ClientFactory interface {
	ServiceClients(ctx context.Context, credentialsJSON []byte) (Clients, error)
	UserClients(ctx context.Context, clientSecretJSON []byte, token *oauth2.Token, tokenFile string) (Clients, error)
}

// AuthResolver selects the provider for the current settings.
type AuthResolver interface {
	Resolve(ctx context.Context, st settings.Settings) (AuthProvider, error)
}

// Resolver picks delegated mode when a client secret is configured and service mode
// otherwise. A broken credential is an error; it never falls back to the other mode.
type Resolver struct {
	factory ClientFactory
	logger  *slog.Logger
	config  Config
}

// NewResolver creates a resolver.
func NewResolver(factory ClientFactory, config Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{factory: factory, config: config, logger: logger}
}

// Resolve implements AuthResolver. Paths in st must already be absolute or relative to
// the working directory.
func (r *Resolver) Resolve(ctx context.Context, st settings.Settings) (AuthProvider, error) {
	switch {
	case st.ClientSecretPath != "":
		return r.delegated(ctx, st)
	case st.CredentialsPath != "":
		clients, email, err := r.service(ctx, st.CredentialsPath)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("resolved service identity", "email", email)
		return NewServiceAuth(clients, email), nil
	default:
		return nil, ErrMissingCredentials
	}
}

func (r *Resolver) delegated(ctx context.Context, st settings.Settings) (AuthProvider, error) {
	secret, err := readCredential(st.ClientSecretPath)
	if err != nil {
		return nil, err
	}
	oauthConfig, err := google.ConfigFromJSON(secret, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCredentials, st.ClientSecretPath, err)
	}

	tokenFile := TokenFileFor(st.ClientSecretPath, r.config.TokenFileName)
	token, err := LoadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: delegated token %s is unusable (run `crm auth google`): %w",
			ErrInvalidCredentials, tokenFile, err)
	}

	owner, err := r.factory.UserClients(ctx, secret, token, tokenFile)
	if err != nil {
		return nil, err
	}

	var writer Clients
	var serviceEmail string
	if st.CredentialsPath != "" {
		writer, serviceEmail, err = r.service(ctx, st.CredentialsPath)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Debug("resolved delegated identity",
		"client_id", oauthConfig.ClientID,
		"service_writer", serviceEmail)
	return NewDelegatedAuth(owner, oauthConfig.ClientID, writer, serviceEmail), nil
}

func (r *Resolver) service(ctx context.Context, path string) (Clients, string, error) {
	key, err := readCredential(path)
	if err != nil {
		return Clients{}, "", err
	}
	email, err := ServiceAccountEmail(key)
	if err != nil {
		return Clients{}, "", fmt.Errorf("%w: %s: %w", ErrInvalidCredentials, path, err)
	}
	clients, err := r.factory.ServiceClients(ctx, key)
	if err != nil {
		return Clients{}, "", err
	}
	return clients, email, nil
}

// ServiceAccountEmail extracts the public address of a service account key.
func ServiceAccountEmail(key []byte) (string, error) {
	var cred struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(key, &cred); err != nil {
		return "", err
	}
	if cred.ClientEmail == "" {
		return "", errors.New("key has no client_email")
	}
	return cred.ClientEmail, nil
}

func readCredential(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidCredentials, path)
	}
	return data, nil
}
