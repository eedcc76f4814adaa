package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tabeya-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Scope string

const (
	ScopeOrderPlace       Scope = "order"
	ScopeReservationPlace Scope = "reservation"
)

// ClaimState is the outcome of claiming an idempotency key.
type ClaimState int

const (
	// ClaimAcquired means the caller owns the key and must Remember or Release it.
	ClaimAcquired ClaimState = iota
	// ClaimReplay means the key already produced a record; its id is returned.
	ClaimReplay
	// ClaimInFlight means another request holds the key and has not finished.
	ClaimInFlight
)

// pendingMarker is stored while the owning request is still placing.
const pendingMarker = "pending"

// IdempotencyStore maps a client-supplied key to the record it produced so a
// retried placement replays the first result. A key is claimed with SETNX
// before anything is written, so concurrent retries cannot both place. Redis
// errors on the claim let the request through without protection.
type IdempotencyStore struct {
	kv         KV
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewIdempotencyStore(kv KV, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &IdempotencyStore{kv: kv, ttl: ttl, pendingTTL: TTLIdempotencyPending}
}

func idemKey(scope Scope, customerID int64, key string) string {
	if scope == ScopeReservationPlace {
		return fmt.Sprintf(KeyIdemReservationPlace, customerID, key)
	}
	return fmt.Sprintf(KeyIdemOrderPlace, customerID, key)
}

func (s *IdempotencyStore) Claim(ctx context.Context, scope Scope, customerID int64, key string) (int64, ClaimState) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "redisx"), zap.String("method", "Claim"))
	k := idemKey(scope, customerID, key)

	ok, err := s.kv.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		log.Warn("idempotency claim failed", zap.Error(err))
		return 0, ClaimAcquired
	}
	if ok {
		return 0, ClaimAcquired
	}

	val, err := s.kv.Get(ctx, k).Result()
	if err != nil {
		// Lost between SETNX and GET: expired or released by its owner.
		if !errors.Is(err, redis.Nil) {
			log.Warn("idempotency lookup failed", zap.Error(err))
		}
		return 0, ClaimInFlight
	}
	if val == pendingMarker {
		return 0, ClaimInFlight
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Warn("corrupt idempotency value, reclaiming", zap.String("value", val))
		if err := s.kv.Set(ctx, k, pendingMarker, s.pendingTTL).Err(); err != nil {
			log.Warn("idempotency reclaim failed", zap.Error(err))
		}
		return 0, ClaimAcquired
	}
	return id, ClaimReplay
}

// Remember replaces the pending marker with the id the placement produced.
func (s *IdempotencyStore) Remember(ctx context.Context, scope Scope, customerID int64, key string, id int64) {
	err := s.kv.Set(ctx, idemKey(scope, customerID, key), strconv.FormatInt(id, 10), s.ttl).Err()
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to store idempotency key", zap.Error(err))
	}
}

// Release drops a claim whose placement failed so the client may retry.
func (s *IdempotencyStore) Release(ctx context.Context, scope Scope, customerID int64, key string) {
	if err := s.kv.Del(ctx, idemKey(scope, customerID, key)).Err(); err != nil {
		logger.FromCtx(ctx).Warn("failed to release idempotency key", zap.Error(err))
	}
}
