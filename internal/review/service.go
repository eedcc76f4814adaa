package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/audit"
	"tabeya-be/internal/customer"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/utils"

	"go.uber.org/zap"
)

const SubmittedMessage = "Thank you! Your feedback has been submitted and is pending approval."

type Service interface {
	ListReviewableItems(ctx context.Context, customerID int64) (*Reviewable, error)
	SubmitFeedback(ctx context.Context, in FeedbackInput) (*SubmitResult, error)
}

type service struct {
	repo      Repository
	customers customer.Repository
	recorder  audit.Recorder
	now       func() time.Time
}

func NewService(repo Repository, customers customer.Repository, recorder audit.Recorder) Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &service{repo: repo, customers: customers, recorder: recorder, now: time.Now}
}

func (s *service) ListReviewableItems(ctx context.Context, customerID int64) (*Reviewable, error) {
	if customerID <= 0 {
		return nil, apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListReviewableItems"),
	)

	since := s.now().Add(-ReviewWindow)

	orders, err := s.repo.ReviewableOrders(ctx, customerID, since)
	if err != nil {
		log.Error("failed to list reviewable orders", zap.Error(err))
		return nil, apperr.Persistence(err)
	}
	reservations, err := s.repo.ReviewableReservations(ctx, customerID, since)
	if err != nil {
		log.Error("failed to list reviewable reservations", zap.Error(err))
		return nil, apperr.Persistence(err)
	}
	return &Reviewable{Orders: orders, Reservations: reservations}, nil
}

func (s *service) SubmitFeedback(ctx context.Context, in FeedbackInput) (*SubmitResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitFeedback"),
		zap.Int64("customer_id", in.CustomerID),
	)

	f, err := buildFeedback(in)
	if err != nil {
		log.Info("feedback rejected", zap.String("reason", apperr.From(err).Reason))
		return nil, err
	}

	name, err := s.customers.ActiveName(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotActive) {
			return nil, apperr.Validation(ReasonInvalidCustomer, ErrInactiveCustomer)
		}
		return nil, apperr.Persistence(err)
	}

	if err := s.repo.InsertFeedback(ctx, f); err != nil {
		return nil, apperr.Persistence(err)
	}

	metrics.FeedbackSubmitted.Inc()
	s.recorder.Record(ctx, audit.ReviewSubmitted(f.CustomerID, name, f.ID, string(f.FeedbackType), f.OverallRating, f.IsAnonymous))

	log.Info("feedback submitted", zap.Int64("feedback_id", f.ID))
	return &SubmitResult{FeedbackID: f.ID, IsAnonymous: f.IsAnonymous}, nil
}

func buildFeedback(in FeedbackInput) (*Feedback, error) {
	if in.CustomerID <= 0 {
		return nil, apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}
	if in.OverallRating < 1 || in.OverallRating > 5 {
		return nil, apperr.Validation(ReasonInvalidRating, ErrInvalidOverall)
	}

	f := &Feedback{
		CustomerID:    in.CustomerID,
		OverallRating: in.OverallRating,
		IsAnonymous:   in.IsAnonymous,
		Status:        StatusPending,
	}

	switch t := FeedbackType(strings.TrimSpace(string(in.FeedbackType))); t {
	case "", TypeGeneral:
		f.FeedbackType = TypeGeneral
	case TypeOrder:
		if in.OrderID <= 0 {
			return nil, apperr.Validation(ReasonMissingReference, ErrMissingOrderID)
		}
		f.FeedbackType, f.OrderID = t, &in.OrderID
	case TypeReservation:
		if in.ReservationID <= 0 {
			return nil, apperr.Validation(ReasonMissingReference, ErrMissingReservation)
		}
		f.FeedbackType, f.ReservationID = t, &in.ReservationID
	default:
		return nil, apperr.Validation(ReasonInvalidType, ErrInvalidFeedbackType)
	}

	ratings := []struct {
		in  int
		out **int
	}{
		{in.FoodRating, &f.FoodRating},
		{in.PortionRating, &f.PortionRating},
		{in.ServiceRating, &f.ServiceRating},
		{in.AmbienceRating, &f.AmbienceRating},
		{in.CleanlinessRating, &f.CleanlinessRating},
	}
	for _, r := range ratings {
		if r.in < 0 || r.in > 5 {
			return nil, apperr.Validation(ReasonInvalidRating, ErrInvalidCategory)
		}
		if r.in > 0 {
			v := r.in
			*r.out = &v
		}
	}

	f.FoodComment = utils.NullIfBlank(in.FoodComment)
	f.PortionComment = utils.NullIfBlank(in.PortionComment)
	f.ServiceComment = utils.NullIfBlank(in.ServiceComment)
	f.AmbienceComment = utils.NullIfBlank(in.AmbienceComment)
	f.CleanlinessComment = utils.NullIfBlank(in.CleanlinessComment)
	f.ReviewMessage = utils.NullIfBlank(in.ReviewMessage)
	return f, nil
}
