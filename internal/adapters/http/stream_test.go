package http_test

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/aissim/internal/adapters/http"
	"github.com/samirrijal/aissim/internal/adapters/wsclient"
	"github.com/samirrijal/aissim/internal/core/domain"
)

// serveStream starts a stream listener on a random port and returns its URL.
func serveStream(t *testing.T, src *handler.StreamSource) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupStreamRoutes(app, src)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/ws/ais"
}

func TestAISStream_DeliversAllThenEnds(t *testing.T) {
	msgs := []domain.AISSentence{
		{Message: "AIVDM", MMSI: "123456789", Timestamp: "2026-03-01T12:10:00.000000Z", Payload: "!AIVDM,b"},
		{Message: "AIVDM", MMSI: "123456789", Timestamp: "2026-03-01T12:05:00.000000Z", Payload: "!AIVDM,a"},
		{Message: "AIVDM", MMSI: "987654321", Timestamp: "2026-03-01T12:00:00.000000Z", Payload: "!AIVDM,c"},
	}
	src, err := handler.NewStreamSource(msgs, 0)
	if err != nil {
		t.Fatal(err)
	}
	url := serveStream(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var got []domain.AISSentence
	n, err := wsclient.New(url).Consume(ctx, func(ctx context.Context, m domain.AISSentence) error {
		got = append(got, m)
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if n != len(msgs) || len(got) != len(msgs) {
		t.Fatalf("expected %d sentences, got %d", len(msgs), n)
	}
	for i := range msgs {
		if got[i] != msgs[i] {
			t.Errorf("sentence %d: expected %+v, got %+v", i, msgs[i], got[i])
		}
	}
}

func TestAISStream_EmptyQueue(t *testing.T) {
	src, err := handler.NewStreamSource(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	url := serveStream(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := wsclient.New(url).Consume(ctx, func(ctx context.Context, m domain.AISSentence) error {
		t.Errorf("unexpected sentence %+v", m)
		return nil
	})
	if err != nil || n != 0 {
		t.Fatalf("expected clean end with no sentences, got n=%d err=%v", n, err)
	}
}

func TestAISStream_RejectsPlainHTTP(t *testing.T) {
	src, _ := handler.NewStreamSource(nil, 0)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupStreamRoutes(app, src)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/ais", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
