package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/response"
	"github.com/fatflowers/caterpay/pkg/types"
)

// RetryAfter is sent with 503 answers to webhooks whose record is not written yet.
const RetryAfter = time.Minute

// statusFor maps the error taxonomy onto an HTTP status and envelope code.
func statusFor(err error) (int, response.APIResponseCode) {
	switch {
	case errors.Is(err, types.ErrRecordNotReady):
		return http.StatusServiceUnavailable, response.APIResponseCodeRetryLater
	case errors.Is(err, types.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, response.APIResponseCodeProviderUnavailable
	case errors.Is(err, types.ErrInvalidSignature):
		return http.StatusUnauthorized, response.APIResponseCodeInvalidSignature
	case errors.Is(err, types.ErrInvalidRequest):
		return http.StatusBadRequest, response.APIResponseCodeBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, response.APIResponseCodeNotFound
	case errors.Is(err, types.ErrProviderError):
		return http.StatusInternalServerError, response.APIResponseCodeProviderError
	default:
		return http.StatusInternalServerError, response.APIResponseCodeError
	}
}

// abortWithError writes the error envelope. The error text is returned in data
// so callers see which field or provider failed.
func abortWithError(c *gin.Context, log *zap.SugaredLogger, event string, err error) {
	status, code := statusFor(err)
	l := logctx.FromGin(c, log)
	if status >= http.StatusInternalServerError && code != response.APIResponseCodeRetryLater {
		l.Errorw(event, "error", err, "status", status)
	} else {
		l.Warnw(event, "error", err, "status", status)
	}
	if code == response.APIResponseCodeRetryLater {
		c.Header("Retry-After", strconv.Itoa(int(RetryAfter.Seconds())))
	}
	c.AbortWithStatusJSON(status, response.ErrorT[any](code, err.Error()))
}

// bindError wraps gin binding failures into the invalid-request class.
func bindError(err error) error {
	return fmt.Errorf("%w: %v", types.ErrInvalidRequest, err)
}
