package feather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// Credentials creates and verifies proof-of-identity credentials.
type Credentials interface {
	Create(ctx context.Context, params CredentialParams) (*Credential, error)
	Update(ctx context.Context, id, verificationCode string) (*Credential, error)
}

// Users manages user principals and their token bundles.
type Users interface {
	Create(ctx context.Context, credentialToken string) (*User, error)
	Retrieve(ctx context.Context, id, accessToken string) (*User, error)
	Update(ctx context.Context, id string, metadata map[string]any, accessToken string) (*User, error)
	UpdateEmail(ctx context.Context, id, newEmail, accessToken, credentialToken string) (*User, error)
	UpdatePassword(ctx context.Context, id, newPassword, accessToken, credentialToken string) (*User, error)
	RefreshTokens(ctx context.Context, id, refreshToken string) (*User, error)
	RevokeTokens(ctx context.Context, id, refreshToken string) (*User, error)
}

// Sessions creates, upgrades and revokes server-side sessions.
type Sessions interface {
	Create(ctx context.Context, credentialToken string) (*Session, error)
	Upgrade(ctx context.Context, id, credentialToken string) (*Session, error)
	Revoke(ctx context.Context, id, sessionToken string) (*Session, error)
}

// Passwords registers a password against a verified credential.
type Passwords interface {
	Create(ctx context.Context, password, credentialToken string) (*Password, error)
}

// PublicKeys fetches project signing keys.
type PublicKeys interface {
	Retrieve(ctx context.Context, id string) (*PublicKey, error)
}

// Password is a registered password resource.
type Password struct {
	ID        string     `json:"id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CredentialParams are the inputs to Credentials.Create. All fields are
// optional at this layer; the flows decide which combination a given
// operation needs.
type CredentialParams struct {
	Email        string
	Username     string
	Password     string
	RedirectURL  string
	TemplateName string
}

// Validate checks field shapes before anything touches the wire.
func (p CredentialParams) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, is.Email),
		validation.Field(&p.RedirectURL, is.URL),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid credential parameters").
			WithTextCode(TextCodeParameterInvalid).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

func (p CredentialParams) values() url.Values {
	data := url.Values{}
	if p.Email != "" {
		data.Set("email", p.Email)
	}
	if p.Username != "" {
		data.Set("username", p.Username)
	}
	if p.Password != "" {
		data.Set("password", p.Password)
	}
	if p.RedirectURL != "" {
		data.Set("redirect_url", p.RedirectURL)
	}
	if p.TemplateName != "" {
		data.Set("template_name", p.TemplateName)
	}
	return data
}

// toString renders a metadata value for form encoding.
func toString(value any) string {
	return fmt.Sprint(value)
}

// requireParam guards the id-style arguments the resource clients interpolate
// into paths and headers.
func requireParam(name, value string) error {
	if value == "" {
		return errors.New("required param not provided: '"+name+"'", errors.CategoryValidation).
			WithTextCode(TextCodeParameterMissing).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

type credentialsResource struct {
	gateway *gateway
}

var _ Credentials = (*credentialsResource)(nil)

func (r *credentialsResource) Create(ctx context.Context, params CredentialParams) (*Credential, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	credential := &Credential{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/credentials", params.values(), nil, credential); err != nil {
		return nil, err
	}
	return credential, nil
}

func (r *credentialsResource) Update(ctx context.Context, id, verificationCode string) (*Credential, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	if err := requireParam("verificationCode", verificationCode); err != nil {
		return nil, err
	}
	data := url.Values{}
	data.Set("verification_code", verificationCode)
	credential := &Credential{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/credentials/"+id, data, nil, credential); err != nil {
		return nil, err
	}
	return credential, nil
}

type usersResource struct {
	gateway *gateway
}

var _ Users = (*usersResource)(nil)

func (r *usersResource) Create(ctx context.Context, credentialToken string) (*User, error) {
	headers := map[string]string{"X-Credential-Token": credentialToken}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/users", nil, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *usersResource) Retrieve(ctx context.Context, id, accessToken string) (*User, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Access-Token": accessToken}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodGet, "/users/"+id, nil, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *usersResource) Update(ctx context.Context, id string, metadata map[string]any, accessToken string) (*User, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	data := url.Values{}
	for key, value := range metadata {
		data.Set("metadata["+key+"]", toString(value))
	}
	headers := map[string]string{"X-Access-Token": accessToken}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/users/"+id, data, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *usersResource) UpdateEmail(ctx context.Context, id, newEmail, accessToken, credentialToken string) (*User, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	data := url.Values{}
	if newEmail != "" {
		data.Set("new_email", newEmail)
	}
	headers := map[string]string{
		"X-Access-Token":     accessToken,
		"X-Credential-Token": credentialToken,
	}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/users/"+id+"/email", data, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *usersResource) UpdatePassword(ctx context.Context, id, newPassword, accessToken, credentialToken string) (*User, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	if err := requireParam("newPassword", newPassword); err != nil {
		return nil, err
	}
	data := url.Values{}
	data.Set("new_password", newPassword)
	headers := map[string]string{
		"X-Access-Token":     accessToken,
		"X-Credential-Token": credentialToken,
	}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/users/"+id+"/password", data, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *usersResource) RefreshTokens(ctx context.Context, id, refreshToken string) (*User, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Refresh-Token": refreshToken}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/users/"+id+"/tokens", nil, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *usersResource) RevokeTokens(ctx context.Context, id, refreshToken string) (*User, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Refresh-Token": refreshToken}
	user := &User{}
	if err := r.gateway.sendRequest(ctx, http.MethodDelete, "/users/"+id+"/tokens", nil, headers, user); err != nil {
		return nil, err
	}
	return user, nil
}

type sessionsResource struct {
	gateway *gateway
}

var _ Sessions = (*sessionsResource)(nil)

func (r *sessionsResource) Create(ctx context.Context, credentialToken string) (*Session, error) {
	var data url.Values
	if credentialToken != "" {
		data = url.Values{}
		data.Set("credential_token", credentialToken)
	}
	session := &Session{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/sessions", data, nil, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionsResource) Upgrade(ctx context.Context, id, credentialToken string) (*Session, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	if err := requireParam("credentialToken", credentialToken); err != nil {
		return nil, err
	}
	data := url.Values{}
	data.Set("credential_token", credentialToken)
	session := &Session{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/sessions/"+id+"/upgrade", data, nil, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionsResource) Revoke(ctx context.Context, id, sessionToken string) (*Session, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	data := url.Values{}
	if sessionToken != "" {
		data.Set("session_token", sessionToken)
	}
	session := &Session{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/sessions/"+id+"/revoke", data, nil, session); err != nil {
		return nil, err
	}
	return session, nil
}

type passwordsResource struct {
	gateway *gateway
}

var _ Passwords = (*passwordsResource)(nil)

func (r *passwordsResource) Create(ctx context.Context, password, credentialToken string) (*Password, error) {
	if err := requireParam("password", password); err != nil {
		return nil, err
	}
	if err := requireParam("credentialToken", credentialToken); err != nil {
		return nil, err
	}
	data := url.Values{}
	data.Set("password", password)
	headers := map[string]string{"X-Credential-Token": credentialToken}
	out := &Password{}
	if err := r.gateway.sendRequest(ctx, http.MethodPost, "/passwords", data, headers, out); err != nil {
		return nil, err
	}
	return out, nil
}

type publicKeysResource struct {
	gateway *gateway
}

var _ PublicKeys = (*publicKeysResource)(nil)

func (r *publicKeysResource) Retrieve(ctx context.Context, id string) (*PublicKey, error) {
	if err := requireParam("id", id); err != nil {
		return nil, err
	}
	key := &PublicKey{}
	if err := r.gateway.sendRequest(ctx, http.MethodGet, "/publicKeys/"+id, nil, nil, key); err != nil {
		return nil, err
	}
	return key, nil
}
