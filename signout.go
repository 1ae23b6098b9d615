package feather

import "context"

// SignOut revokes the current session with the server and clears the session
// and user from the local state. It fails when there is no session to revoke;
// any pending credential is left intact.
func (c *Client) SignOut(ctx context.Context) error {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return err
	}
	if state.Session == nil {
		return stateInconsistent("there is no current session on this client")
	}
	if _, err := c.sessions.Revoke(ctx, state.Session.ID, state.Session.Token); err != nil {
		return err
	}
	return c.engine.clearCurrentSession(ctx)
}
