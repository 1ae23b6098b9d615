package feather

import "context"

// UpdateUser merges the given metadata into the current user and commits the
// returned user to the local state.
func (c *Client) UpdateUser(ctx context.Context, metadata map[string]any) (*User, error) {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	if state.User == nil {
		return nil, stateInconsistent("there is no current user on this client")
	}
	user, err := c.users.Update(ctx, state.User.ID, metadata, state.User.accessToken())
	if err != nil {
		return nil, err
	}
	if err := c.engine.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserEmail changes the current user's email address. The password
// re-proves the user's identity before the change is accepted.
func (c *Client) UpdateUserEmail(ctx context.Context, password, newEmail string) (*User, error) {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	credential, err := c.reauthenticate(ctx, state, password)
	if err != nil {
		return nil, err
	}
	user, err := c.users.UpdateEmail(ctx, state.User.ID, newEmail, state.User.accessToken(), credential.Token)
	if err != nil {
		return nil, err
	}
	if err := c.engine.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserPassword changes the current user's password. The current
// password re-proves the user's identity before the change is accepted.
func (c *Client) UpdateUserPassword(ctx context.Context, currentPassword, newPassword string) (*User, error) {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	credential, err := c.reauthenticate(ctx, state, currentPassword)
	if err != nil {
		return nil, err
	}
	user, err := c.users.UpdatePassword(ctx, state.User.ID, newPassword, state.User.accessToken(), credential.Token)
	if err != nil {
		return nil, err
	}
	if err := c.engine.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RefreshTokens forces an immediate token refresh for the current user,
// independent of the proactive refresh timer. A rejected refresh token clears
// the current user and returns nil rather than an error.
func (c *Client) RefreshTokens(ctx context.Context) (*User, error) {
	return c.engine.refreshCurrentUser(ctx)
}

// RevokeTokens invalidates the current user's refresh token server-side and
// commits the returned user, whose token bundle is gone. Sessions created
// before the revocation are unaffected.
func (c *Client) RevokeTokens(ctx context.Context) (*User, error) {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	if state.User == nil {
		return nil, stateInconsistent("there is no current user on this client")
	}
	user, err := c.users.RevokeTokens(ctx, state.User.ID, state.User.refreshToken())
	if err != nil {
		return nil, err
	}
	if err := c.engine.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// reauthenticate creates a password credential for the current user's email
// and requires it to come back valid. Anonymous users have no password to
// check against.
func (c *Client) reauthenticate(ctx context.Context, state *State, password string) (*Credential, error) {
	switch {
	case state.User == nil:
		return nil, stateInconsistent("there is no current user on this client")
	case state.User.IsAnonymous:
		return nil, stateInconsistent("the current user is anonymous and cannot be updated this way")
	}
	credential, err := c.credentials.Create(ctx, CredentialParams{
		Email:    state.User.Email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	if credential.Status != CredentialStatusValid {
		return nil, credentialInvalid("incorrect password")
	}
	return credential, nil
}
