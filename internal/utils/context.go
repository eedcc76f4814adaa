package utils

type contextKey string

const (
	CustomerIDKey   contextKey = "customer_id"
	TokenSubjectKey contextKey = "token_subject"
)
