package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"driver-location-be/internal/model"
	"driver-location-be/internal/repository/memory"
	"driver-location-be/pkg/events"
	"driver-location-be/pkg/pubsub"
)

var errStoreDown = errors.New("store down")

// countingGeoIndex wraps the memory index and records removals.
type countingGeoIndex struct {
	*memory.GeoIndexRepository

	mu        sync.Mutex
	removed   map[string]int
	radiusErr error
	upsertErr error
}

func newCountingGeoIndex() *countingGeoIndex {
	return &countingGeoIndex{
		GeoIndexRepository: memory.NewGeoIndexRepository(),
		removed:            make(map[string]int),
	}
}

func (g *countingGeoIndex) Upsert(ctx context.Context, member string, pos model.Position) error {
	if g.upsertErr != nil {
		return g.upsertErr
	}
	return g.GeoIndexRepository.Upsert(ctx, member, pos)
}

func (g *countingGeoIndex) Radius(ctx context.Context, center model.Position, radiusKm float64, limit int) ([]model.GeoCandidate, error) {
	if g.radiusErr != nil {
		return nil, g.radiusErr
	}
	return g.GeoIndexRepository.Radius(ctx, center, radiusKm, limit)
}

func (g *countingGeoIndex) Remove(ctx context.Context, member string) error {
	g.mu.Lock()
	g.removed[member]++
	g.mu.Unlock()
	return g.GeoIndexRepository.Remove(ctx, member)
}

func (g *countingGeoIndex) removals(member string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removed[member]
}

func (g *countingGeoIndex) totalRemovals() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.removed {
		n += c
	}
	return n
}

// scriptedLiveness answers from a fixed table, optionally slowly, and tracks
// how many lookups run at once.
type scriptedLiveness struct {
	alive  map[string]bool
	delays map[string]time.Duration
	errs   map[string]error
	setErr error

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func newScriptedLiveness() *scriptedLiveness {
	return &scriptedLiveness{
		alive:  make(map[string]bool),
		delays: make(map[string]time.Duration),
		errs:   make(map[string]error),
	}
}

func (l *scriptedLiveness) SetAlive(_ context.Context, driverID string, _ time.Duration) error {
	if l.setErr != nil {
		return l.setErr
	}
	l.alive[driverID] = true
	return nil
}

func (l *scriptedLiveness) IsAlive(ctx context.Context, driverID string) (bool, error) {
	l.calls.Add(1)
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		seen := l.maxSeen.Load()
		if n <= seen || l.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if d := l.delays[driverID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if err := l.errs[driverID]; err != nil {
		return false, err
	}
	return l.alive[driverID], nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (e *recordingEmitter) Emit(event events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

type published struct {
	channel string
	payload []byte
}

type recordingBus struct {
	mu        sync.Mutex
	published []published
	receivers int64
	err       error
}

func (b *recordingBus) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.published = append(b.published, published{channel: channel, payload: payload})
	return b.receivers, nil
}

func (b *recordingBus) Subscribe(context.Context, string) (pubsub.Subscription, error) {
	return nil, errors.New("not supported")
}

type logEntry struct {
	level, module, message string
	details                map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, module: module, message: message, details: details})
}

func (l *recordingLogger) Debug(m, msg string, d map[string]interface{}) { l.add("debug", m, msg, d) }
func (l *recordingLogger) Info(m, msg string, d map[string]interface{})  { l.add("info", m, msg, d) }
func (l *recordingLogger) Warn(m, msg string, d map[string]interface{})  { l.add("warn", m, msg, d) }
func (l *recordingLogger) Error(m, msg string, d map[string]interface{}) { l.add("error", m, msg, d) }
func (l *recordingLogger) Sync() error                                   { return nil }

func (l *recordingLogger) has(level, message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.message == message {
			return true
		}
	}
	return false
}
