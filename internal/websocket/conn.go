package websocket

import (
	"errors"
	"net"
	"strings"
	"time"
)

// Keepalive tokens exchanged as text frames.
const (
	PingToken = "PING"
	PongToken = "PONG"
)

var ErrMissingDriverID = errors.New("missing driver id")

// Conn is the part of a WebSocket connection a Session drives. The fiber
// websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// LocationPath is the route drivers connect on; the id follows it.
const LocationPath = "/ws/location"

// ParseDriverID returns everything after the last "/" of a path under
// LocationPath. "/ws/location/101" yields "101"; "/ws/location",
// "/ws/location/" and "/ws/location/101/" are rejected.
func ParseDriverID(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, LocationPath+"/")
	if !ok {
		return "", ErrMissingDriverID
	}
	id := rest[strings.LastIndex(rest, "/")+1:]
	if strings.TrimSpace(id) == "" {
		return "", ErrMissingDriverID
	}
	return id, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
