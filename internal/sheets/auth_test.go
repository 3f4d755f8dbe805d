package sheets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testServiceEmail = "exporter@crm-project.iam.gserviceaccount.com"
	testClientID     = "1234.apps.googleusercontent.com"

	testServiceKey   = `{"type":"service_account","client_email":"` + testServiceEmail + `","private_key":"unused"}`
	testClientSecret = `{"installed":{"client_id":"` + testClientID + `","client_secret":"shh",` +
		`"redirect_uris":["http://localhost"],` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
	testToken = `{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expiry":"2099-01-01T00:00:00Z"}`
)

type staticSettings struct {
	err error
	st  settings.Settings
}

func (s staticSettings) Current() (settings.Settings, error) { return s.st, s.err }

type credentialFiles struct {
	ServiceKey   string
	ClientSecret string
	Token        string
}

func writeCredentialFiles(t *testing.T) credentialFiles {
	t.Helper()
	dir := t.TempDir()
	files := credentialFiles{
		ServiceKey:   filepath.Join(dir, "service_account.json"),
		ClientSecret: filepath.Join(dir, "client_secret.json"),
		Token:        filepath.Join(dir, DefaultConfig().TokenFileName),
	}
	require.NoError(t, os.WriteFile(files.ServiceKey, []byte(testServiceKey), 0o600))
	require.NoError(t, os.WriteFile(files.ClientSecret, []byte(testClientSecret), 0o600))
	require.NoError(t, os.WriteFile(files.Token, []byte(testToken), 0o600))
	return files
}

func newMockFactory() *MockClientFactory {
	return &MockClientFactory{
		Service: NewMockDocuments(),
		User:    NewMockDocuments(),
	}
}

func TestResolver_MissingCredentials(t *testing.T) {
	factory := newMockFactory()
	resolver := NewResolver(factory, DefaultConfig(), nil)

	_, err := resolver.Resolve(context.Background(), settings.Settings{FolderID: "folder"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Empty(t, factory.ServiceKeys)
	assert.Empty(t, factory.UserTokens)
}

func TestResolver_ServiceMode(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	resolver := NewResolver(factory, DefaultConfig(), nil)

	auth, err := resolver.Resolve(context.Background(), settings.Settings{CredentialsPath: files.ServiceKey})
	require.NoError(t, err)

	assert.IsType(t, &ServiceAuth{}, auth)
	assert.Equal(t, AuthContext{
		Mode:           AuthModeService,
		WriterIdentity: testServiceEmail,
		OwnerIdentity:  testServiceEmail,
	}, auth.Context())
	assert.Same(t, factory.Service, auth.Documents())
	assert.Same(t, factory.Service, auth.Spreadsheets())

	require.NoError(t, auth.Authorize(context.Background(), "doc-1"))
	assert.Empty(t, factory.Service.Grants)
}

func TestResolver_DelegatedWithServiceWriter(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	resolver := NewResolver(factory, DefaultConfig(), nil)

	auth, err := resolver.Resolve(context.Background(), settings.Settings{
		CredentialsPath:  files.ServiceKey,
		ClientSecretPath: files.ClientSecret,
	})
	require.NoError(t, err)

	assert.IsType(t, &DelegatedAuth{}, auth)
	assert.Equal(t, AuthContext{
		Mode:           AuthModeDelegated,
		WriterIdentity: testServiceEmail,
		OwnerIdentity:  testClientID,
	}, auth.Context())
	assert.Same(t, factory.User, auth.Documents())
	assert.Same(t, factory.Service, auth.Spreadsheets())

	require.Len(t, factory.UserTokens, 1)
	assert.Equal(t, "refresh", factory.UserTokens[0].RefreshToken)

	require.NoError(t, auth.Authorize(context.Background(), "doc-7"))
	assert.Equal(t, []GrantCall{{FileID: "doc-7", Email: testServiceEmail}}, factory.User.Grants)
	assert.Empty(t, factory.Service.Grants)
}

func TestResolver_DelegatedWithoutServiceWriter(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	resolver := NewResolver(factory, DefaultConfig(), nil)

	auth, err := resolver.Resolve(context.Background(), settings.Settings{ClientSecretPath: files.ClientSecret})
	require.NoError(t, err)

	assert.Equal(t, AuthModeDelegated, auth.Context().Mode)
	assert.Equal(t, testClientID, auth.Context().WriterIdentity)
	assert.Same(t, factory.User, auth.Spreadsheets())
	assert.Empty(t, factory.ServiceKeys)

	require.NoError(t, auth.Authorize(context.Background(), "doc-1"))
	assert.Empty(t, factory.User.Grants)
}

func TestResolver_InvalidCredentialsNeverFallBack(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, files credentialFiles) settings.Settings
	}{
		{
			name: "missing delegated token",
			mutate: func(t *testing.T, files credentialFiles) settings.Settings {
				require.NoError(t, os.Remove(files.Token))
				return settings.Settings{CredentialsPath: files.ServiceKey, ClientSecretPath: files.ClientSecret}
			},
		},
		{
			name: "malformed delegated token",
			mutate: func(t *testing.T, files credentialFiles) settings.Settings {
				require.NoError(t, os.WriteFile(files.Token, []byte("{"), 0o600))
				return settings.Settings{CredentialsPath: files.ServiceKey, ClientSecretPath: files.ClientSecret}
			},
		},
		{
			name: "client secret is not an oauth client",
			mutate: func(t *testing.T, files credentialFiles) settings.Settings {
				require.NoError(t, os.WriteFile(files.ClientSecret, []byte(`{"web":{}}`), 0o600))
				return settings.Settings{CredentialsPath: files.ServiceKey, ClientSecretPath: files.ClientSecret}
			},
		},
		{
			name: "unreadable client secret",
			mutate: func(_ *testing.T, files credentialFiles) settings.Settings {
				return settings.Settings{
					CredentialsPath:  files.ServiceKey,
					ClientSecretPath: filepath.Join(filepath.Dir(files.ClientSecret), "absent.json"),
				}
			},
		},
		{
			name: "malformed service key",
			mutate: func(t *testing.T, files credentialFiles) settings.Settings {
				require.NoError(t, os.WriteFile(files.ServiceKey, []byte("not json"), 0o600))
				return settings.Settings{CredentialsPath: files.ServiceKey}
			},
		},
		{
			name: "service key without email",
			mutate: func(t *testing.T, files credentialFiles) settings.Settings {
				require.NoError(t, os.WriteFile(files.ServiceKey, []byte(`{"type":"service_account"}`), 0o600))
				return settings.Settings{CredentialsPath: files.ServiceKey}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := writeCredentialFiles(t)
			factory := newMockFactory()
			resolver := NewResolver(factory, DefaultConfig(), nil)

			_, err := resolver.Resolve(context.Background(), tt.mutate(t, files))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.NotErrorIs(t, err, ErrMissingCredentials)
			assert.Empty(t, factory.ServiceKeys, "must not fall back to the service identity")
		})
	}
}

func TestResolver_FactoryErrorsPropagate(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	factory.ServiceErr = ErrInvalidCredentials
	resolver := NewResolver(factory, DefaultConfig(), nil)

	_, err := resolver.Resolve(context.Background(), settings.Settings{CredentialsPath: files.ServiceKey})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDelegatedAuth_GrantFailure(t *testing.T) {
	owner := NewMockDocuments()
	owner.GrantErr = errors.New("insufficient permissions")
	auth := NewDelegatedAuth(owner.Clients(), testClientID, NewMockDocuments().Clients(), testServiceEmail)

	err := auth.Authorize(context.Background(), "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShareFailed)
	assert.Contains(t, err.Error(), "insufficient permissions")
}

func TestServiceAccountEmail(t *testing.T) {
	email, err := ServiceAccountEmail([]byte(testServiceKey))
	require.NoError(t, err)
	assert.Equal(t, testServiceEmail, email)

	_, err = ServiceAccountEmail([]byte(`{}`))
	assert.Error(t, err)
}
