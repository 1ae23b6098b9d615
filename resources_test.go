package feather_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/feather-id/feather-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialParamsValidate(t *testing.T) {
	t.Run("accepts a full parameter set", func(t *testing.T) {
		params := feather.CredentialParams{
			Email:        "jane@example.com",
			Password:     "hunter2",
			RedirectURL:  "https://app.example.com/confirm",
			TemplateName: "sign_in",
		}
		assert.NoError(t, params.Validate())
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		err := feather.CredentialParams{Email: "not-an-email"}.Validate()
		require.Error(t, err)
		assert.Equal(t, feather.TextCodeParameterInvalid, textCodeOf(t, err))
	})

	t.Run("rejects a malformed redirect url", func(t *testing.T) {
		err := feather.CredentialParams{RedirectURL: "::not a url"}.Validate()
		require.Error(t, err)
	})
}

func TestResourcesRequireIdentifiers(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, unreachedHandler(t), nil)

	t.Run("credentials update", func(t *testing.T) {
		_, err := client.Credentials().Update(ctx, "", "CODE123")
		require.Error(t, err)
		assert.Equal(t, feather.TextCodeParameterMissing, textCodeOf(t, err))

		_, err = client.Credentials().Update(ctx, "CRD_1", "")
		require.Error(t, err)
		assert.Equal(t, feather.TextCodeParameterMissing, textCodeOf(t, err))
	})

	t.Run("users retrieve", func(t *testing.T) {
		_, err := client.Users().Retrieve(ctx, "", "at_1")
		require.Error(t, err)
		assert.Equal(t, feather.TextCodeParameterMissing, textCodeOf(t, err))
	})

	t.Run("sessions upgrade", func(t *testing.T) {
		_, err := client.Sessions().Upgrade(ctx, "", "ct_1")
		require.Error(t, err)

		_, err = client.Sessions().Upgrade(ctx, testSessionID, "")
		require.Error(t, err)
	})

	t.Run("passwords create", func(t *testing.T) {
		_, err := client.Passwords().Create(ctx, "", "ct_1")
		require.Error(t, err)

		_, err = client.Passwords().Create(ctx, "hunter2", "")
		require.Error(t, err)
	})

	t.Run("public keys retrieve", func(t *testing.T) {
		_, err := client.PublicKeys().Retrieve(ctx, "")
		require.Error(t, err)
	})
}

func TestPasswordsCreate(t *testing.T) {
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/passwords", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		assert.Equal(t, "ct_1", r.Header.Get("X-Credential-Token"))
		writeJSON(t, w, &feather.Password{ID: "PWD_1"})
	})

	client := newTestClient(t, mux, nil)

	password, err := client.Passwords().Create(ctx, "hunter2", "ct_1")

	require.NoError(t, err)
	assert.Equal(t, "PWD_1", password.ID)
}
