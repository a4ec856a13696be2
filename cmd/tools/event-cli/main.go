package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/rts-pathing/internal/eventbus"
)

const (
	defaultNATSURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05"
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNATSURL, "NATS server address")
		stream     = flag.String("stream", "NAV_EVENTS", "JetStream stream name")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 - follow until Ctrl+C)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := tailEvents(ctx, bus, parseStringList(*eventTypes), *limit); err != nil {
		log.Fatalf("Tail failed: %v", err)
	}
}

// tailEvents печатает события до отмены контекста или до limit событий
func tailEvents(ctx context.Context, bus eventbus.EventBus, types []string, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("Listening for events (types: %s)\n", strings.Join(types, ","))
	count := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			fmt.Println(describeEvent(ev))
			count++
			if limit > 0 && count >= limit {
				return nil
			}
		}
	}
}

// describeEvent возвращает событие в читаемом формате
func describeEvent(ev *eventbus.Envelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s [%s] %s",
		ev.Timestamp.Format(timeFormat),
		ev.Source,
		ev.EventType,
		ev.ID)

	// Детали в зависимости от типа события
	switch ev.EventType {
	case eventbus.TypeTerrainChanged:
		var p eventbus.TerrainChanged
		if ev.Decode(&p) == nil {
			fmt.Fprintf(&b, "\n  Layer %d: %s (%d,%d) %dx%d", p.Layer, p.Kind, p.X, p.Y, p.Width, p.Height)
		}
	case eventbus.TypeUnitOrdered:
		var p eventbus.UnitOrdered
		if ev.Decode(&p) == nil {
			fmt.Fprintf(&b, "\n  Unit %d -> (%d,%d) layer %d range %d..%d", p.Unit, p.GoalX, p.GoalY, p.Layer, p.MinRange, p.MaxRange)
		}
	case eventbus.TypeTickCompleted:
		var p eventbus.TickCompleted
		if ev.Decode(&p) == nil {
			fmt.Fprintf(&b, "\n  Tick %d: moved=%d waiting=%d reached=%d unreachable=%d failed=%d",
				p.Tick, p.Moved, p.Waiting, p.Reached, p.Unreachable, p.Failed)
		}
	case eventbus.TypeSaveCreated, eventbus.TypeSaveLoaded:
		var p eventbus.SaveEvent
		if ev.Decode(&p) == nil {
			fmt.Fprintf(&b, "\n  Save %s: %d units", p.SaveID, p.Units)
		}
	}
	return b.String()
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
