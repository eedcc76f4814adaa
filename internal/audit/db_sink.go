package audit

import (
	"context"
	"database/sql"

	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"

	"go.uber.org/zap"
)

// DBSink writes events to the activity_logs table.
type DBSink struct {
	db *sql.DB
}

func NewDBSink(db *sql.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Record(ctx context.Context, e Event) {
	ctx, cancel := detach(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (
			event_id, user_type, user_id, username, action, action_category,
			description, source_system, reference_id, reference_table,
			old_value, new_value, status, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		e.ID, e.ActorType, e.ActorID, e.ActorName, e.Action, e.Category,
		e.Description, e.SourceSystem, e.ReferenceID, e.ReferenceTable,
		e.OldValue, e.NewValue, string(e.Status), logger.RequestIDFrom(ctx), e.OccurredAt,
	)
	if err != nil {
		metrics.AuditFailures.Inc()
		logger.FromCtx(ctx).Error("failed to write activity log",
			zap.String("sink", "db"),
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}
