package bias

import (
	"context"
	"testing"
	"time"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectionEvent() models.SelectionEvent {
	return models.SelectionEvent{
		EventID:     "evt-1",
		EventType:   models.EventClicked,
		CandidateID: "cand-1",
		SearchID:    "search-1",
		TenantID:    "tenant-1",
		UserHash:    "user-hash",
		Dimensions: models.EventDimensions{
			CompanyTier:    models.TierStartup,
			ExperienceBand: models.Band3to7,
			Specialty:      models.SpecBackend,
		},
		Rank:      models.Int(2),
		Score:     models.Float(0.66),
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresSinkInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := selectionEvent()
	mock.ExpectExec("INSERT INTO selection_events").
		WithArgs(
			event.EventID, "clicked", event.CandidateID, event.SearchID,
			event.TenantID, event.UserHash, "startup", "3-7", "backend",
			event.Rank, event.Score, event.Timestamp,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sink := NewPostgresSink(db)
	require.NoError(t, sink.Insert(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO selection_events").
		WillReturnError(assert.AnError)

	sink := NewPostgresSink(db)
	err = sink.Insert(context.Background(), selectionEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVENT_SINK_FAILED")
}

func TestEmitterSwallowsSinkFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO selection_events").
		WillReturnError(assert.AnError)

	emitter := NewEmitter(NewPostgresSink(db), logger.NewNoOpLogger())
	emitter.Emit(selectionEvent())

	assert.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 10*time.Millisecond)
}
