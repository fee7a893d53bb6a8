// Package main - watcher
// Follows a live epidemic server over WebSocket and prints one line per
// committed day, plus the run boundaries.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/report"
)

// wireEvent is a SimEvent as it arrives on the socket, payload undecoded.
type wireEvent struct {
	Type    events.EventType `json:"type"`
	RunID   string           `json:"run_id"`
	Region  string           `json:"region"`
	Day     int              `json:"day"`
	Payload json.RawMessage  `json:"payload"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	follow := flag.Bool("follow", false, "keep watching after a run ends")
	human := flag.Bool("humanize", false, "print counts with thousands separators")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "interrupt received, stopping...")
		cancel()
	}()

	w := &watcher{out: os.Stdout, follow: *follow, line: report.NewLine(os.Stdout, report.Options{Humanize: *human})}
	if err := w.watch(ctx, *serverURL); err != nil && ctx.Err() == nil {
		log.Fatalf("watcher: %v", err)
	}
}

type watcher struct {
	out    io.Writer
	line   *report.Line
	follow bool
}

// watch reads frames until the run ends (unless following), the peer
// closes or ctx is canceled.
func (w *watcher) watch(ctx context.Context, serverURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", serverURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		done, err := w.handleFrame(frame)
		if err != nil {
			return err
		}
		if done && !w.follow {
			return nil
		}
	}
}

// handleFrame prints every event in a frame. The hub batches queued events
// into one frame separated by newlines. It reports whether a run ended.
func (w *watcher) handleFrame(frame []byte) (bool, error) {
	ended := false
	for _, raw := range bytes.Split(frame, []byte{'\n'}) {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var e wireEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return ended, fmt.Errorf("decode event: %w", err)
		}
		end, err := w.handleEvent(e)
		if err != nil {
			return ended, err
		}
		ended = ended || end
	}
	return ended, nil
}

func (w *watcher) handleEvent(e wireEvent) (bool, error) {
	switch e.Type {
	case events.EventTypeRunStarted:
		var info engine.RunInfo
		if err := json.Unmarshal(e.Payload, &info); err != nil {
			return false, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		fmt.Fprintf(w.out, "run %s started: %s, %d regions, %d days, R0=%.2f\n",
			e.RunID, info.Scenario, info.Regions, info.Days, info.R0)
		return false, w.line.Report(info.Initial)

	case events.EventTypeDayAdvanced:
		var r engine.DayReport
		if err := json.Unmarshal(e.Payload, &r); err != nil {
			return false, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		return false, w.line.Report(r)

	case events.EventTypeNegativeCompartment:
		fmt.Fprintf(w.out, "warning: region %s went negative on day %d\n", e.Region, e.Day)
		return false, nil

	case events.EventTypeRunCompleted, events.EventTypeRunAborted:
		var outcome engine.RunOutcome
		if err := json.Unmarshal(e.Payload, &outcome); err != nil {
			return false, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		switch {
		case outcome.Stopped:
			fmt.Fprintf(w.out, "run %s stopped at day %d\n", e.RunID, outcome.Day)
		case outcome.Error != "":
			fmt.Fprintf(w.out, "run %s aborted at day %d: %s\n", e.RunID, outcome.Day, outcome.Error)
		default:
			fmt.Fprintf(w.out, "run %s completed at day %d\n", e.RunID, outcome.Day)
		}
		return true, nil
	}
	return false, nil
}
