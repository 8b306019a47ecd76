// Command simulator drives fake drivers against the location service. Each
// driver opens a WebSocket, answers keepalive pings, random-walks around a
// start point, and follows CONFIG_UPDATE directives for its report interval.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type options struct {
	baseURL    string
	drivers    int
	idPrefix   string
	longitude  float64
	latitude   float64
	stepDeg    float64
	intervalMs int64
	duration   time.Duration
}

type position struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type directive struct {
	Type    string `json:"type"`
	Payload struct {
		LocationIntervalMs int64 `json:"locationIntervalMs"`
	} `json:"payload"`
}

func main() {
	if err := run(); err != nil {
		color.Red("simulator: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("simulator", pflag.ContinueOnError)
	flagSet.StringVar(&opts.baseURL, "url", "ws://localhost:3000/ws/location", "WebSocket base URL; the driver id is appended")
	flagSet.IntVarP(&opts.drivers, "drivers", "n", 3, "number of simulated drivers")
	flagSet.StringVar(&opts.idPrefix, "id-prefix", "sim-", "driver id prefix")
	flagSet.Float64Var(&opts.longitude, "lon", 127.0, "start longitude")
	flagSet.Float64Var(&opts.latitude, "lat", 37.5, "start latitude")
	flagSet.Float64Var(&opts.stepDeg, "step", 0.0005, "max random-walk step in degrees")
	flagSet.Int64Var(&opts.intervalMs, "interval-ms", 5000, "report interval until the server says otherwise")
	flagSet.DurationVarP(&opts.duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if opts.drivers <= 0 {
		return fmt.Errorf("--drivers must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	color.Cyan("🚗 Simulating %d drivers against %s", opts.drivers, opts.baseURL)

	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= opts.drivers; i++ {
		id := fmt.Sprintf("%s%d", opts.idPrefix, i)
		g.Go(func() error {
			return simulateDriver(gctx, id, opts)
		})
	}
	err := g.Wait()
	color.Cyan("\n✅ Simulation finished")
	return err
}

func simulateDriver(ctx context.Context, driverID string, opts options) error {
	url := strings.TrimRight(opts.baseURL, "/") + "/" + driverID
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("driver %s: dial: %w", driverID, err)
	}
	defer conn.Close()
	color.Green("[%s] connected", driverID)

	var writeMu sync.Mutex
	send := func(data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	var intervalMs atomic.Int64
	intervalMs.Store(opts.intervalMs)
	changed := make(chan struct{}, 1)

	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			text := strings.TrimSpace(string(data))
			if text == "PING" {
				if err := send([]byte("PONG")); err != nil {
					readErr <- err
					return
				}
				continue
			}

			var d directive
			if err := json.Unmarshal(data, &d); err != nil || d.Type != "CONFIG_UPDATE" {
				color.Yellow("[%s] ignoring frame: %s", driverID, text)
				continue
			}
			if d.Payload.LocationIntervalMs > 0 && intervalMs.Swap(d.Payload.LocationIntervalMs) != d.Payload.LocationIntervalMs {
				color.Magenta("[%s] report interval now %dms", driverID, d.Payload.LocationIntervalMs)
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}()

	pos := position{Longitude: opts.longitude, Latitude: opts.latitude}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			writeMu.Lock()
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			writeMu.Unlock()
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("driver %s: connection lost: %w", driverID, err)
		case <-changed:
			resetTimer(timer, time.Duration(intervalMs.Load())*time.Millisecond)
		case <-timer.C:
			pos.Longitude += (rand.Float64()*2 - 1) * opts.stepDeg
			pos.Latitude += (rand.Float64()*2 - 1) * opts.stepDeg
			data, _ := json.Marshal(pos)
			if err := send(data); err != nil {
				return fmt.Errorf("driver %s: send: %w", driverID, err)
			}
			fmt.Printf("[%s] reported %.6f,%.6f\n", driverID, pos.Latitude, pos.Longitude)
			timer.Reset(time.Duration(intervalMs.Load()) * time.Millisecond)
		}
	}
}

// resetTimer drops a tick that already fired so the new interval starts clean.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
