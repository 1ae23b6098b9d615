// Package feather is the Go client SDK for the Feather identity service.
//
// The package issues and validates credentials, sessions and users against
// the Feather HTTP API, keeps a single durable record of the current
// {credential, session, user} triple, and refreshes user tokens shortly
// before they expire.
//
// Typical usage:
//
//	client, err := feather.New("live_...", feather.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	unsubscribe := client.OnStateChange(func(user *feather.User) {
//		// react to sign-in / sign-out / token refresh
//	})
//	defer unsubscribe()
//
//	if err := client.SignInAnonymously(ctx); err != nil {
//		log.Fatal(err)
//	}
package feather
