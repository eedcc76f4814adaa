package stock

import (
	"context"
	"database/sql"

	"tabeya-be/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	ActiveLevels(ctx context.Context) (Levels, error)
	Requirements(ctx context.Context, productIDs []int64) (map[int64][]Requirement, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveLevels(ctx context.Context) (Levels, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ActiveLevels"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT ingredient_id, COALESCE(SUM(stock_quantity), 0)
		FROM inventory_batches
		WHERE batch_status = $1
		GROUP BY ingredient_id
	`, BatchStatusActive)
	if err != nil {
		log.Error("failed to query active stock", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	levels := make(Levels)
	for rows.Next() {
		var (
			ingredientID int64
			qty          decimal.Decimal
		)
		if err := rows.Scan(&ingredientID, &qty); err != nil {
			log.Error("failed to scan stock row", zap.Error(err))
			return nil, err
		}
		levels[ingredientID] = qty
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("active stock loaded", zap.Int("ingredients", len(levels)))
	return levels, nil
}

func (r *repository) Requirements(ctx context.Context, productIDs []int64) (map[int64][]Requirement, error) {
	out := make(map[int64][]Requirement, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, ingredient_id, quantity_used
		FROM product_ingredients
		WHERE product_id = ANY($1)
		ORDER BY product_id, ingredient_id
	`, pq.Array(productIDs))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query product ingredients", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.ProductID, &req.IngredientID, &req.QuantityUsed); err != nil {
			return nil, err
		}
		out[req.ProductID] = append(out[req.ProductID], req)
	}

	return out, rows.Err()
}
