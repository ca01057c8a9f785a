package response

// APIResponseCode is the application-level code carried in error envelopes.
// It complements, and never replaces, the HTTP status.
type APIResponseCode int

const (
	APIResponseCodeOK                  APIResponseCode = 0
	APIResponseCodeBadRequest          APIResponseCode = 40000
	APIResponseCodeInvalidSignature    APIResponseCode = 40100
	APIResponseCodeNotFound            APIResponseCode = 40400
	APIResponseCodeError               APIResponseCode = 50000
	APIResponseCodeProviderError       APIResponseCode = 50001
	APIResponseCodeProviderUnavailable APIResponseCode = 50300
	APIResponseCodeRetryLater          APIResponseCode = 50301
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:                  "ok",
	APIResponseCodeBadRequest:          "invalid request",
	APIResponseCodeInvalidSignature:    "invalid signature",
	APIResponseCodeNotFound:            "not found",
	APIResponseCodeError:               "unexpected error",
	APIResponseCodeProviderError:       "payment provider error",
	APIResponseCodeProviderUnavailable: "not configured",
	APIResponseCodeRetryLater:          "retry later",
}

// APIResponse is the generic envelope used for error bodies.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}
