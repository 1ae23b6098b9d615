package feather

import (
	"github.com/goliatone/go-errors"
)

// Text codes mirror the error codes the Feather API uses on the wire, so a
// locally raised error and its server-side counterpart are indistinguishable
// to callers switching on TextCode.
const (
	TextCodeAPIConnection            = "api_connection_error"
	TextCodeAPIKeyInvalid            = "api_key_invalid"
	TextCodeCredentialInvalid        = "credential_invalid"
	TextCodeCurrentStateInconsistent = "current_state_inconsistent"
	TextCodeParameterInvalid         = "parameter_invalid"
	TextCodeParameterMissing         = "parameter_missing"
	TextCodeTokenExpired             = "token_expired"
	TextCodeTokenInvalid             = "token_invalid"
	TextCodeVerificationCodeInvalid  = "verification_code_invalid"
)

// ErrAPIKeyInvalid is returned when the client is constructed without a usable API key.
var ErrAPIKeyInvalid = errors.New("the provided api key is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeAPIKeyInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid is returned when a token is structurally or cryptographically
// untrustworthy. Decode failures, signature failures and claim violations all
// share this one shape so callers cannot distinguish why verification failed.
var ErrTokenInvalid = errors.New("the token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is well formed and correctly signed
// but past its expiry.
var ErrTokenExpired = errors.New("the token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrCurrentStateInconsistent is returned when a flow's precondition against
// the current local state does not hold (e.g. signing in while a user is
// already authenticated).
var ErrCurrentStateInconsistent = errors.New("the current state is inconsistent with this operation", errors.CategoryConflict).
	WithTextCode(TextCodeCurrentStateInconsistent).
	WithCode(errors.CodeConflict)

// ErrCredentialInvalid is returned when the server rejects a credential, for
// example an incorrect email/password pair.
var ErrCredentialInvalid = errors.New("the credential is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeCredentialInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrVerificationCodeInvalid is returned when a link-confirmation URL carries
// no verification code or the server rejects the code.
var ErrVerificationCodeInvalid = errors.New("the verification code is invalid", errors.CategoryValidation).
	WithTextCode(TextCodeVerificationCodeInvalid).
	WithCode(errors.CodeBadRequest)

// ErrAPIConnection is returned when a request never produced a well-formed
// response from the Feather API (DNS failure, refused connection, bad JSON).
var ErrAPIConnection = errors.New("could not connect to the feather api", errors.CategoryOperation).
	WithTextCode(TextCodeAPIConnection).
	WithCode(errors.CodeInternal)

// IsTokenInvalidError reports whether err carries the token_invalid text code.
func IsTokenInvalidError(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}

// IsTokenExpiredError reports whether err carries the token_expired text code.
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsCurrentStateInconsistentError reports whether err was raised by a flow
// precondition check.
func IsCurrentStateInconsistentError(err error) bool {
	return hasTextCode(err, TextCodeCurrentStateInconsistent)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// stateInconsistent clones ErrCurrentStateInconsistent with a flow-specific message.
func stateInconsistent(message string) *errors.Error {
	clone := ErrCurrentStateInconsistent.Clone()
	clone.Message = message
	return clone
}

// credentialInvalid clones ErrCredentialInvalid with a flow-specific message.
func credentialInvalid(message string) *errors.Error {
	clone := ErrCredentialInvalid.Clone()
	clone.Message = message
	return clone
}

// verificationCodeInvalid clones ErrVerificationCodeInvalid with a
// flow-specific message.
func verificationCodeInvalid(message string) *errors.Error {
	clone := ErrVerificationCodeInvalid.Clone()
	clone.Message = message
	return clone
}
