package bias

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/talentlake/talentrank/internal/common/errors"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/common/metrics"
	"github.com/talentlake/talentrank/internal/models"
)

// EventSink persists selection events for fairness analytics.
type EventSink interface {
	Insert(ctx context.Context, event models.SelectionEvent) error
}

const insertEventQuery = `
	INSERT INTO selection_events
		(event_id, event_type, candidate_id, search_id, tenant_id, user_hash,
		 company_tier, experience_band, specialty, rank, score, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// PostgresSink writes selection events to the analytics table.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Insert(ctx context.Context, event models.SelectionEvent) error {
	_, err := s.db.ExecContext(ctx, insertEventQuery,
		event.EventID,
		string(event.EventType),
		event.CandidateID,
		event.SearchID,
		event.TenantID,
		event.UserHash,
		event.Dimensions.CompanyTier,
		event.Dimensions.ExperienceBand,
		event.Dimensions.Specialty,
		event.Rank,
		event.Score,
		event.Timestamp,
	)
	if err != nil {
		return errors.NewEventSinkFailedError(err)
	}
	return nil
}

// LogSink writes events to the structured log instead of a database.
// Used when no analytics store is configured.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Insert(_ context.Context, event models.SelectionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.logger.Info("selection event", map[string]interface{}{
		"event": string(payload),
	})
	return nil
}

const emitTimeout = 2 * time.Second

// Emitter publishes selection events fire-and-forget. A failed insert
// is logged and counted, never surfaced to the request path.
type Emitter struct {
	sink   EventSink
	logger logger.Logger
}

func NewEmitter(sink EventSink, log logger.Logger) *Emitter {
	return &Emitter{
		sink:   sink,
		logger: log.WithFields(map[string]interface{}{"component": "selection-events"}),
	}
}

func (e *Emitter) Emit(event models.SelectionEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()

		if err := e.sink.Insert(ctx, event); err != nil {
			e.logger.Warn("selection event emit failed", map[string]interface{}{
				"event_id":   event.EventID,
				"event_type": string(event.EventType),
				"error":      err.Error(),
			})
			return
		}
		metrics.SelectionEventsEmitted.WithLabelValues(string(event.EventType)).Inc()
	}()
}
