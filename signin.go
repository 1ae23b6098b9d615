package feather

import "context"

// Template names attached to credentials created by the link flows. The
// server uses them to select which email to send.
const (
	templateSignIn         = "sign_in"
	templateVerifyEmail    = "verify_email"
	templateForgotPassword = "forgot_password"
	templateUpdateEmail    = "update_email"
)

// SignIn authenticates with an email and password. If an anonymous session is
// already active it is upgraded in place, preserving the session ID;
// otherwise a new session is created. On success the session and its user
// replace the local state and observers are notified.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	if state.User != nil && !state.User.IsAnonymous {
		return stateInconsistent("the current user is already authenticated")
	}
	credential, err := c.credentials.Create(ctx, CredentialParams{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	if credential.Status != CredentialStatusValid {
		return credentialInvalid("incorrect email or password")
	}
	return c.establishSession(ctx, state.Session, credential.Token)
}

// SignInAnonymously creates a session with no credential, backed by a fresh
// anonymous user. Rejected when a session already exists on this client.
func (c *Client) SignInAnonymously(ctx context.Context) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	if state.Session != nil {
		return stateInconsistent("there is already a session on this client")
	}
	return c.establishSession(ctx, nil, "")
}

// NewCurrentUser exchanges a valid credential token for a session and user
// and installs them as the current state. It is the low-level form of the
// sign-in flows for callers that obtained a credential out of band.
func (c *Client) NewCurrentUser(ctx context.Context, credentialToken string) (*User, error) {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.establishSession(ctx, state.Session, credentialToken); err != nil {
		return nil, err
	}
	return c.engine.CurrentUser(ctx)
}

// NewCurrentCredential creates a credential and stores it as the pending
// credential, ready to be confirmed by a verification code. Observers do not
// fire; credential state is not observable.
func (c *Client) NewCurrentCredential(ctx context.Context, params CredentialParams) (*Credential, error) {
	credential, err := c.credentials.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := c.engine.SetCurrentCredential(ctx, credential); err != nil {
		return nil, err
	}
	return credential, nil
}

// establishSession upgrades the given session with the credential token, or
// creates a new session when there is none, then retrieves the session's user
// and commits the new triple.
func (c *Client) establishSession(ctx context.Context, session *Session, credentialToken string) error {
	var (
		next *Session
		err  error
	)
	if session != nil {
		next, err = c.sessions.Upgrade(ctx, session.ID, credentialToken)
	} else {
		next, err = c.sessions.Create(ctx, credentialToken)
	}
	if err != nil {
		return err
	}
	user, err := c.users.Retrieve(ctx, next.UserID, next.Token)
	if err != nil {
		return err
	}
	return c.engine.replaceState(ctx, nil, next, user)
}
