package utils

import "context"

// SetCustomerContext sets the authenticated customer into context (called by middleware)
func SetCustomerContext(ctx context.Context, id int64, subject string) context.Context {
	ctx = context.WithValue(ctx, CustomerIDKey, id)
	ctx = context.WithValue(ctx, TokenSubjectKey, subject)
	return ctx
}

// GetCustomerIDFromContext retrieves the customer id safely
func GetCustomerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(CustomerIDKey).(int64)
	return id, ok
}

func GetTokenSubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(TokenSubjectKey).(string)
	return sub
}
