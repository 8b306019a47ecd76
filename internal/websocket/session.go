package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"driver-location-be/internal/dto"
	"driver-location-be/internal/model"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/internal/pkg/serverutils"
	"driver-location-be/pkg/pubsub"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const maxMessageSize = 512

type SessionState int32

const (
	StateConnecting SessionState = iota
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PositionRecorder accepts a driver's position report.
type PositionRecorder interface {
	RecordPosition(ctx context.Context, driverID string, position model.Position) error
}

type SessionConfig struct {
	PingInterval      time.Duration
	InactivityTimeout time.Duration
	WriteWait         time.Duration
	SubscribeRetries  int
	SubscribeBackoff  time.Duration
	// SampleInterval drops reports arriving sooner than this after the last
	// accepted one. Zero accepts everything.
	SampleInterval time.Duration
	// InitialIntervalMs is sent as a CONFIG_UPDATE right after connect.
	// Zero skips it.
	InitialIntervalMs int64
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.PingInterval <= 0 {
		c.PingInterval = 10 * time.Second
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = 30 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.SubscribeRetries < 0 {
		c.SubscribeRetries = 0
	}
	if c.SubscribeBackoff <= 0 {
		c.SubscribeBackoff = 2 * time.Second
	}
	return c
}

// Session is one driver connection. Run owns three loops: the read loop on
// the calling goroutine, plus directive relay and ping loops. Any of them
// ending closes the session.
type Session struct {
	ID       string
	DriverID string

	conn     Conn
	bus      pubsub.Bus
	recorder PositionRecorder
	cfg      SessionConfig
	logger   logger.ILogger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	state     atomic.Int32

	// writeMu serializes every outbound frame.
	writeMu sync.Mutex

	// Touched only by the read loop.
	lastAccepted time.Time
}

func NewSession(conn Conn, driverID string, bus pubsub.Bus, recorder PositionRecorder, cfg SessionConfig, log logger.ILogger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       uuid.NewString(),
		DriverID: driverID,
		conn:     conn,
		bus:      bus,
		recorder: recorder,
		cfg:      cfg.withDefaults(),
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Run blocks until the session is closed and all its loops have exited.
// Cancelling parent closes the session.
func (s *Session) Run(parent context.Context) {
	stop := context.AfterFunc(parent, s.Close)
	defer stop()

	s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive))
	s.logger.Info("Session", "Session active", s.fields(nil))

	if s.cfg.InitialIntervalMs > 0 {
		s.sendDirective(model.NewConfigUpdate(s.cfg.InitialIntervalMs))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.relayLoop()
	}()
	go func() {
		defer wg.Done()
		s.pingLoop()
	}()

	s.readLoop()
	s.Close()
	wg.Wait()

	s.state.Store(int32(StateClosed))
	s.logger.Info("Session", "Session closed", s.fields(nil))
}

// Close is idempotent and safe from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		s.cancel()

		s.writeMu.Lock()
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()

		_ = s.conn.Close()
	})
}

func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	s.touch()
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			switch {
			case s.ctx.Err() != nil:
			case isTimeout(err):
				s.logger.Info("Session", "Closing inactive session", s.fields(map[string]interface{}{
					"timeout": s.cfg.InactivityTimeout.String(),
				}))
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure):
				s.logger.Warn("Session", "Connection closed unexpectedly", s.fields(map[string]interface{}{"error": err}))
			default:
				s.logger.Debug("Session", "Read loop ended", s.fields(map[string]interface{}{"error": err}))
			}
			return
		}
		s.touch()
		s.handleFrame(data)
	}
}

// touch pushes the inactivity deadline out. Any inbound frame counts.
func (s *Session) touch() {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.InactivityTimeout))
}

func (s *Session) handleFrame(data []byte) {
	switch token := strings.TrimSpace(string(data)); {
	case strings.EqualFold(token, PongToken):
		return
	case strings.EqualFold(token, PingToken):
		// Peer-initiated keepalive.
		if err := s.write(websocket.TextMessage, []byte(PongToken)); err != nil {
			s.logger.Debug("Session", "Failed to answer PING", s.fields(map[string]interface{}{"error": err}))
		}
		return
	}

	var req dto.UpdateLocationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("Session", "Discarding malformed position report", s.fields(map[string]interface{}{"error": err}))
		return
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		s.logger.Warn("Session", "Discarding invalid position report", s.fields(map[string]interface{}{"error": err}))
		return
	}

	if s.cfg.SampleInterval > 0 {
		now := time.Now()
		if !s.lastAccepted.IsZero() && now.Sub(s.lastAccepted) < s.cfg.SampleInterval {
			return
		}
		s.lastAccepted = now
	}

	if err := s.recorder.RecordPosition(s.ctx, s.DriverID, req.Position()); err != nil {
		s.logger.Error("Session", "Failed to record position", s.fields(map[string]interface{}{"error": err}))
	}
}

func (s *Session) relayLoop() {
	channel := model.DirectiveChannel(s.DriverID)
	sub, err := s.subscribe(channel)
	if err != nil {
		if s.ctx.Err() == nil {
			s.logger.Error("Session", "Directive subscription failed, closing session", s.fields(map[string]interface{}{
				"channel": channel,
				"error":   err,
			}))
			s.Close()
		}
		return
	}
	defer sub.Close()

	s.logger.Debug("Session", "Subscribed to directives", s.fields(map[string]interface{}{"channel": channel}))

	for {
		select {
		case <-s.ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				s.logger.Warn("Session", "Directive subscription lost, closing session", s.fields(map[string]interface{}{"channel": channel}))
				s.Close()
				return
			}
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.logger.Warn("Session", "Failed to relay directive", s.fields(map[string]interface{}{"error": err}))
				s.Close()
				return
			}
		}
	}
}

// subscribe tries once plus SubscribeRetries more times with exponential
// backoff starting at SubscribeBackoff.
func (s *Session) subscribe(channel string) (pubsub.Subscription, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.SubscribeBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0

	return backoff.Retry(s.ctx, func() (pubsub.Subscription, error) {
		return s.bus.Subscribe(s.ctx, channel)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.cfg.SubscribeRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn("Session", "Directive subscription failed, retrying", s.fields(map[string]interface{}{
				"channel":  channel,
				"retry_in": next.String(),
				"error":    err,
			}))
		}),
	)
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.write(websocket.TextMessage, []byte(PingToken)); err != nil {
				s.logger.Warn("Session", "Ping failed, closing session", s.fields(map[string]interface{}{"error": err}))
				s.Close()
				return
			}
		}
	}
}

func (s *Session) sendDirective(d model.Directive) {
	payload, err := d.Marshal()
	if err != nil {
		return
	}
	if err := s.write(websocket.TextMessage, payload); err != nil {
		s.logger.Warn("Session", "Failed to send directive", s.fields(map[string]interface{}{"error": err}))
	}
}

func (s *Session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *Session) fields(extra map[string]interface{}) map[string]interface{} {
	f := map[string]interface{}{
		"session_id": s.ID,
		"driver_id":  s.DriverID,
	}
	for k, v := range extra {
		f[k] = v
	}
	return f
}
