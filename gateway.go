package feather

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	defaultProtocol = "https"
	defaultHost     = "api.feather.id"
	defaultPort     = "443"
	defaultBasePath = "/v1"
)

// gateway is the raw HTTP transport every resource client sends through.
// Requests are form-encoded with snake_case keys; responses are JSON. The
// Feather API signals failure with an error envelope rather than relying on
// HTTP status codes alone, so the gateway inspects the body before decoding.
type gateway struct {
	basicAuth  string
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

func newGateway(apiKey string, cfg Config, logger Logger) *gateway {
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = defaultProtocol
	}
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == "" {
		port = defaultPort
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &gateway{
		basicAuth:  "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey+":")),
		baseURL:    protocol + "://" + host + ":" + port + basePath,
		httpClient: httpClient,
		logger:     logger,
	}
}

// apiErrorEnvelope is the error shape the Feather API returns.
type apiErrorEnvelope struct {
	Object  string `json:"object"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendRequest executes one API call and decodes the response into out.
// Transport-level failures surface as ErrAPIConnection; a well-formed error
// envelope is mapped into the rich error taxonomy.
func (g *gateway) sendRequest(ctx context.Context, method, path string, data url.Values, headers map[string]string, out any) error {
	endpoint := g.baseURL + path
	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		if len(data) > 0 {
			endpoint += "?" + data.Encode()
		}
	default:
		if data != nil {
			body = strings.NewReader(data.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return connectionError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", g.basicAuth)
	for key, value := range headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	res, err := g.httpClient.Do(req)
	if err != nil {
		return connectionError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return connectionError(err)
	}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		g.logger.Debug("gateway received undecodable response from %s %s", method, path)
		return connectionError(err)
	}
	if envelope.Object == "error" {
		return apiError(envelope)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return connectionError(err)
	}
	return nil
}

func connectionError(cause error) error {
	richErr := ErrAPIConnection.Clone()
	richErr.Source = cause
	return richErr.WithMetadata(map[string]any{"cause": cause.Error()})
}

// apiError maps a server error envelope into the local taxonomy. The text
// code is carried verbatim so locally and remotely raised errors of the same
// kind are indistinguishable to callers.
func apiError(envelope apiErrorEnvelope) error {
	category := errors.CategoryInternal
	switch envelope.Type {
	case "validation_error":
		category = errors.CategoryValidation
	case "invalid_request_error":
		category = errors.CategoryBadInput
	case "api_authentication_error":
		category = errors.CategoryAuth
	case "rate_limit_error":
		category = errors.CategoryRateLimit
	case "api_connection_error":
		category = errors.CategoryOperation
	}
	message := envelope.Message
	if message == "" {
		message = "the feather api returned an error"
	}
	return errors.New(message, category).
		WithTextCode(envelope.Code).
		WithMetadata(map[string]any{"type": envelope.Type})
}
