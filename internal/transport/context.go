package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/utils"
)

// requestContext bounds every database round trip of one request.
func requestContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), timeout)
}

// resolveCustomer reconciles the customer id a client sent with the signed-in
// customer. Without a token the client value is taken as is; with one, a blank
// value defaults to the token and a different value is forbidden.
func resolveCustomer(ctx context.Context, claimed int64) (int64, error) {
	authed, ok := utils.GetCustomerIDFromContext(ctx)
	if !ok {
		return claimed, nil
	}
	if claimed == 0 {
		return authed, nil
	}
	if claimed != authed {
		return 0, apperr.Forbidden(ReasonCustomerMismatch, ErrCustomerMismatch)
	}
	return claimed, nil
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation(apperr.ReasonBadRequest, ErrMalformedBody)
	}
	return id, nil
}

// flexID accepts a JSON number or a numeric string.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(v)
	return nil
}
