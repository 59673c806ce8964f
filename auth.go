package cari

import "net/http"

const (
	headerApplicationID = "X-Cari-Application-Id"
	headerAPIKey        = "X-Cari-API-Key"
)

// CredentialsMiddleware sets the application ID and API key headers. It keeps
// no state, so the same middleware serves every host and every attempt.
func CredentialsMiddleware(appID, apiKey string) Middleware {
	return func(req *http.Request, next RoundTripper) (*http.Response, error) {
		req.Header.Set(headerApplicationID, appID)
		req.Header.Set(headerAPIKey, apiKey)
		return next.RoundTrip(req)
	}
}
