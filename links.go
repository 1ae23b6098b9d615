package feather

import "context"

// SendSignInLink emails a passwordless sign-in link to the given address. The
// created credential is stored as the pending credential so the link can be
// confirmed later from this same client.
func (c *Client) SendSignInLink(ctx context.Context, email, redirectURL string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	if state.User != nil && !state.User.IsAnonymous {
		return stateInconsistent("the current user is already authenticated")
	}
	return c.sendLink(ctx, CredentialParams{
		Email:        email,
		RedirectURL:  redirectURL,
		TemplateName: templateSignIn,
	})
}

// ConfirmSignInLink completes a passwordless sign-in from the callback URL
// the user landed on. The URL must carry a 'code' query parameter and a
// pending sign-in credential must exist on this client.
func (c *Client) ConfirmSignInLink(ctx context.Context, callbackURL string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	credential, err := c.confirmPendingCredential(ctx, state, callbackURL,
		"there is no pending sign-in request on this client")
	if err != nil {
		return err
	}
	return c.establishSession(ctx, state.Session, credential.Token)
}

// SendEmailVerificationLink emails a verification link to the current user's
// address. The current user must be authenticated, have an email address, and
// not be verified already.
func (c *Client) SendEmailVerificationLink(ctx context.Context, redirectURL string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	switch {
	case state.User == nil:
		return stateInconsistent("there is no current user on this client")
	case state.User.IsAnonymous:
		return stateInconsistent("the current user is anonymous and has no email address")
	case state.User.Email == "":
		return stateInconsistent("the current user has no email address")
	case state.User.IsEmailVerified:
		return stateInconsistent("the current user's email address is already verified")
	}
	return c.sendLink(ctx, CredentialParams{
		Email:        state.User.Email,
		RedirectURL:  redirectURL,
		TemplateName: templateVerifyEmail,
	})
}

// ConfirmEmailVerificationLink completes an email verification from the
// callback URL. The session is untouched; the user is re-retrieved so the
// verified flag lands in the local state, and the pending credential is
// cleared.
func (c *Client) ConfirmEmailVerificationLink(ctx context.Context, callbackURL string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	if state.Session == nil {
		return stateInconsistent("there is no current session on this client")
	}
	if _, err := c.confirmPendingCredential(ctx, state, callbackURL,
		"there is no pending email-verification request on this client"); err != nil {
		return err
	}
	user, err := c.users.Retrieve(ctx, state.Session.UserID, state.Session.Token)
	if err != nil {
		return err
	}
	return c.engine.replaceState(ctx, nil, state.Session, user)
}

// SendForgotPasswordLink emails a password-reset link to the given address.
func (c *Client) SendForgotPasswordLink(ctx context.Context, email, redirectURL string) error {
	return c.sendLink(ctx, CredentialParams{
		Email:        email,
		RedirectURL:  redirectURL,
		TemplateName: templateForgotPassword,
	})
}

// ConfirmForgotPasswordLink completes a password reset from the callback URL,
// setting newPassword on the user behind the pending credential. A session is
// established from the credential first, so resetting a forgotten password
// also signs the user in on this client.
func (c *Client) ConfirmForgotPasswordLink(ctx context.Context, callbackURL, newPassword string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	credential, err := c.confirmPendingCredential(ctx, state, callbackURL,
		"there is no pending forgot-password request on this client")
	if err != nil {
		return err
	}
	var session *Session
	if state.Session != nil {
		session, err = c.sessions.Upgrade(ctx, state.Session.ID, credential.Token)
	} else {
		session, err = c.sessions.Create(ctx, credential.Token)
	}
	if err != nil {
		return err
	}
	user, err := c.users.UpdatePassword(ctx, session.UserID, newPassword, session.Token, credential.Token)
	if err != nil {
		return err
	}
	return c.engine.replaceState(ctx, nil, session, user)
}

// SendUpdateEmailLink emails an update-email confirmation link. The current
// user must be authenticated and not anonymous.
func (c *Client) SendUpdateEmailLink(ctx context.Context, params CredentialParams) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	switch {
	case state.User == nil:
		return stateInconsistent("there is no current user on this client")
	case state.User.IsAnonymous:
		return stateInconsistent("the current user is anonymous and their email cannot be updated")
	}
	params.TemplateName = templateUpdateEmail
	return c.sendLink(ctx, params)
}

// ConfirmUpdateEmailLink completes an email update from the callback URL. The
// new address was captured when the link was sent, so none is supplied here.
func (c *Client) ConfirmUpdateEmailLink(ctx context.Context, callbackURL string) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	if state.Session == nil {
		return stateInconsistent("there is no current session on this client")
	}
	credential, err := c.confirmPendingCredential(ctx, state, callbackURL,
		"there is no pending update-email request on this client")
	if err != nil {
		return err
	}
	user, err := c.users.UpdateEmail(ctx, state.Session.UserID, "", state.Session.Token, credential.Token)
	if err != nil {
		return err
	}
	return c.engine.replaceState(ctx, nil, state.Session, user)
}

// sendLink creates a link credential and stores it as the pending credential.
// Observers do not fire; credential state is not observable.
func (c *Client) sendLink(ctx context.Context, params CredentialParams) error {
	credential, err := c.credentials.Create(ctx, params)
	if err != nil {
		return err
	}
	return c.engine.SetCurrentCredential(ctx, credential)
}

// confirmPendingCredential extracts the verification code from the callback
// URL and resolves the pending credential with it. missingMessage is raised
// when no pending credential exists; a link can only be confirmed from the
// client it was requested on.
func (c *Client) confirmPendingCredential(ctx context.Context, state *State, callbackURL, missingMessage string) (*Credential, error) {
	if state.Credential == nil {
		return nil, stateInconsistent(missingMessage)
	}
	code, err := parseVerificationCode(callbackURL)
	if err != nil {
		return nil, err
	}
	credential, err := c.credentials.Update(ctx, state.Credential.ID, code)
	if err != nil {
		return nil, err
	}
	if credential.Status != CredentialStatusValid {
		return nil, ErrVerificationCodeInvalid
	}
	return credential, nil
}
