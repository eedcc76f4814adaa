package product

import (
	"context"
	"database/sql"

	"tabeya-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	ListAvailable(ctx context.Context) ([]Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListAvailable(ctx context.Context) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListAvailable"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, product_name, category, description, price,
		       availability, serving_size, image, popularity_tag, order_count
		FROM products
		WHERE availability = $1
		ORDER BY order_count DESC, category ASC, product_id ASC
	`, AvailabilityAvailable)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Category,
			&p.Description,
			&p.Price,
			&p.Availability,
			&p.ServingSize,
			&p.Image,
			&p.PopularityTag,
			&p.OrderCount,
		); err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return products, nil
}
