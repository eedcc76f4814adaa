package product

import (
	"context"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/stock"

	"go.uber.org/zap"
)

// Cache stores the projected read model between requests. Implementations
// must treat every failure as a miss.
type Cache interface {
	Get(ctx context.Context) ([]AvailableProduct, bool)
	Set(ctx context.Context, items []AvailableProduct)
}

type Service interface {
	ListAvailable(ctx context.Context) ([]AvailableProduct, error)
}

type service struct {
	repo      Repository
	stockRepo stock.Repository
	cache     Cache
}

// NewService builds the availability projector. cache may be nil.
func NewService(repo Repository, stockRepo stock.Repository, cache Cache) Service {
	return &service{repo: repo, stockRepo: stockRepo, cache: cache}
}

func (s *service) ListAvailable(ctx context.Context) ([]AvailableProduct, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListAvailable"),
	)
	timer := metrics.StartTimer()

	if s.cache != nil {
		if items, ok := s.cache.Get(ctx); ok {
			log.Debug("catalog served from cache", zap.Int("count", len(items)))
			return items, nil
		}
	}

	products, err := s.repo.ListAvailable(ctx)
	if err != nil {
		log.Error("failed to load catalog", zap.Error(err))
		return nil, apperr.Unavailable(ReasonCatalogUnavailable, err)
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	reqs, err := s.stockRepo.Requirements(ctx, ids)
	if err != nil {
		log.Error("failed to load ingredient requirements", zap.Error(err))
		return nil, apperr.Unavailable(ReasonCatalogUnavailable, err)
	}

	levels, err := s.stockRepo.ActiveLevels(ctx)
	if err != nil {
		log.Error("failed to load stock levels", zap.Error(err))
		return nil, apperr.Unavailable(ReasonCatalogUnavailable, err)
	}

	verdicts := stock.EvaluateAll(ids, reqs, levels)

	items := make([]AvailableProduct, 0, len(products))
	for _, p := range products {
		items = append(items, project(p, verdicts[p.ID]))
	}
	SortForDisplay(items)

	if s.cache != nil {
		s.cache.Set(ctx, items)
	}

	log.Info("catalog projected",
		zap.Int("count", len(items)),
		zap.Duration("duration", timer.ObserveInto(&metrics.CatalogLatency)),
	)
	return items, nil
}

func project(p Product, v stock.Verdict) AvailableProduct {
	return AvailableProduct{
		ProductID:            p.ID,
		Name:                 p.Name,
		Category:             p.Category,
		Description:          p.Description,
		Price:                p.Price,
		ServingSize:          p.ServingSize,
		Image:                p.Image,
		PopularityTag:        p.PopularityTag,
		OrderCount:           p.OrderCount,
		StarRating:           StarRating(p.OrderCount),
		StockStatus:          v.Status,
		AvailabilityReason:   v.Reason,
		IngredientsAvailable: v.AvailableIngredients,
		IngredientsRequired:  v.TotalIngredients,
	}
}
