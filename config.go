package feather

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// Config holds client options. The zero value targets the production Feather
// API with an in-memory state store.
type Config struct {
	// Protocol is "https" (default) or "http".
	Protocol string
	// Host overrides the API host, default "api.feather.id".
	Host string
	// Port overrides the API port, default "443".
	Port string
	// BasePath overrides the API base path, default "/v1".
	BasePath string

	// HTTPClient overrides the transport. Timeout and retry policy belong
	// here, not in the SDK.
	HTTPClient *http.Client

	// StateStore holds the durable {credential, session, user} record. When
	// nil the client uses an in-memory store; use NewSQLiteStateStore or
	// NewRedisStateStore for state that outlives the process.
	StateStore StateStore

	// Keys overrides how public keys are resolved for local token
	// verification. Defaults to the caching provider over the API's
	// /publicKeys endpoint.
	Keys PublicKeyProvider

	// Logger receives diagnostic output. Defaults to a stdout logger.
	Logger Logger
}

// Validate checks the config shape before the client is constructed.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Protocol, validation.In("", "http", "https")),
		validation.Field(&c.Host, is.Host),
		validation.Field(&c.Port, is.Port),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid client config").
			WithTextCode(TextCodeParameterInvalid).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}
