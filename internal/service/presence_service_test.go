package service

import (
	"context"
	"testing"
	"time"

	"driver-location-be/internal/model"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPositionWritesIndexAndLiveness(t *testing.T) {
	geo := newCountingGeoIndex()
	liveness := newScriptedLiveness()
	emitter := &recordingEmitter{}

	svc := NewPresenceService(geo, liveness, emitter, 30*time.Second, logger.NewNopLogger())
	require.NoError(t, svc.RecordPosition(context.Background(), "101", model.Position{Longitude: 127.001, Latitude: 37.501}))

	assert.Equal(t, 1, geo.Len())
	assert.True(t, liveness.alive["101"])
	require.Len(t, emitter.events, 1)
	assert.Equal(t, events.TypeDriverLocationUpdated, emitter.events[0].EventType())
	assert.Equal(t, "101", emitter.events[0].Payload()["driver_id"])
	assert.Equal(t, 37.501, emitter.events[0].Payload()["latitude"])
}

func TestRecordPositionRejectsEmptyDriverID(t *testing.T) {
	geo := newCountingGeoIndex()
	svc := NewPresenceService(geo, newScriptedLiveness(), nil, time.Second, logger.NewNopLogger())

	err := svc.RecordPosition(context.Background(), "", model.Position{})
	assert.ErrorIs(t, err, ErrInvalidDriverID)
	assert.Zero(t, geo.Len())
}

func TestRecordPositionAttemptsBothWrites(t *testing.T) {
	t.Run("index down", func(t *testing.T) {
		geo := newCountingGeoIndex()
		geo.upsertErr = errStoreDown
		liveness := newScriptedLiveness()
		emitter := &recordingEmitter{}

		svc := NewPresenceService(geo, liveness, emitter, time.Second, logger.NewNopLogger())
		err := svc.RecordPosition(context.Background(), "101", model.Position{Longitude: 127, Latitude: 37.5})

		assert.ErrorIs(t, err, ErrPositionNotIndexed)
		assert.ErrorIs(t, err, errStoreDown)
		assert.NotErrorIs(t, err, ErrLivenessNotRefreshed)
		assert.True(t, liveness.alive["101"])
		assert.Empty(t, emitter.events)
	})

	t.Run("liveness down", func(t *testing.T) {
		geo := newCountingGeoIndex()
		liveness := newScriptedLiveness()
		liveness.setErr = errStoreDown

		svc := NewPresenceService(geo, liveness, nil, time.Second, logger.NewNopLogger())
		err := svc.RecordPosition(context.Background(), "101", model.Position{Longitude: 127, Latitude: 37.5})

		assert.ErrorIs(t, err, ErrLivenessNotRefreshed)
		assert.NotErrorIs(t, err, ErrPositionNotIndexed)
		assert.Equal(t, 1, geo.Len())
	})

	t.Run("both down", func(t *testing.T) {
		geo := newCountingGeoIndex()
		geo.upsertErr = errStoreDown
		liveness := newScriptedLiveness()
		liveness.setErr = errStoreDown

		svc := NewPresenceService(geo, liveness, nil, time.Second, logger.NewNopLogger())
		err := svc.RecordPosition(context.Background(), "101", model.Position{Longitude: 127, Latitude: 37.5})

		assert.ErrorIs(t, err, ErrPositionNotIndexed)
		assert.ErrorIs(t, err, ErrLivenessNotRefreshed)
	})
}

func TestRecordPositionSurvivesEmitterFailure(t *testing.T) {
	log := &recordingLogger{}
	emitter := &recordingEmitter{err: errStoreDown}

	svc := NewPresenceService(newCountingGeoIndex(), newScriptedLiveness(), emitter, time.Second, log)
	err := svc.RecordPosition(context.Background(), "101", model.Position{Longitude: 127, Latitude: 37.5})

	assert.NoError(t, err)
	assert.Len(t, emitter.events, 1)
	assert.True(t, log.has("warn", "Failed to emit location event"))
}
