package customer

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"tabeya-be/internal/logger"

	"go.uber.org/zap"
)

const AccountActive = "Active"

type Repository interface {
	// ActiveName returns the display name of an Active customer, or
	// ErrCustomerNotActive.
	ActiveName(ctx context.Context, customerID int64) (string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveName(ctx context.Context, customerID int64) (string, error) {
	var first, last string
	err := r.db.QueryRowContext(ctx, `
		SELECT first_name, last_name
		FROM customers
		WHERE customer_id = $1 AND account_status = $2
	`, customerID, AccountActive).Scan(&first, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCustomerNotActive
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load customer",
			zap.String("layer", "repository"),
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		return "", err
	}
	return strings.TrimSpace(first + " " + last), nil
}
