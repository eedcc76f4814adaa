package cancellation

import (
	"context"
	"errors"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/audit"
	"tabeya-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Cancel(ctx context.Context, t Target, id, customerID int64) error
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &service{repo: repo, recorder: recorder}
}

func (s *service) Cancel(ctx context.Context, t Target, id, customerID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Cancel"),
		zap.String("target", t.Name),
		zap.Int64("id", id),
	)

	if id <= 0 || customerID <= 0 {
		return apperr.Validation(ReasonInvalidRequest, ErrInvalidID)
	}

	previous, err := s.repo.Cancel(ctx, t, id, customerID)
	if err != nil {
		var illegal *IllegalTransitionError
		switch {
		case errors.Is(err, t.ErrNotFound):
			return apperr.NotFound(t.ReasonNotFound, err)
		case errors.As(err, &illegal):
			log.Info("cancellation refused", zap.String("status", illegal.Current))
			return apperr.Conflict(ReasonIllegalTransition, illegal.Error(), err)
		default:
			log.Error("cancellation failed", zap.Error(err))
			return apperr.Persistence(err)
		}
	}

	if t.counter != nil {
		t.counter.Inc()
	}
	if t.event != nil {
		s.recorder.Record(ctx, t.event(customerID, id, previous))
	}

	log.Info("cancelled", zap.String("previous_status", previous))
	return nil
}
