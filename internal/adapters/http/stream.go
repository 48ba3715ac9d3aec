package http

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/pkg/metrics"
)

// StreamSource is the queued simulation output served on /ws/ais.
// Every connection receives the full queue.
type StreamSource struct {
	frames [][]byte
	delay  time.Duration
}

// NewStreamSource encodes msgs once for streaming. delay is the pause
// between frames; zero streams as fast as the client reads.
func NewStreamSource(msgs []domain.AISSentence, delay time.Duration) (*StreamSource, error) {
	frames := make([][]byte, len(msgs))
	for i, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		frames[i] = b
	}
	return &StreamSource{frames: frames, delay: delay}, nil
}

// Len returns the number of queued sentences.
func (s *StreamSource) Len() int {
	return len(s.frames)
}

// AISStreamHandler sends every queued sentence as a JSON text frame and
// then the end-of-stream marker. A client that disconnects ends its stream.
func AISStreamHandler(src *StreamSource) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remote := c.RemoteAddr().String()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Info("ais stream client connected", "remote", remote, "sentences", src.Len())

		for i, frame := range src.frames {
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Info("ais stream client left", "remote", remote, "sent", i, "error", err)
				return
			}
			metrics.AISSentencesStreamed.WithLabelValues("websocket").Inc()
			if src.delay > 0 {
				time.Sleep(src.delay)
			}
		}

		if err := c.WriteMessage(websocket.TextMessage, []byte(domain.EndOfStream)); err != nil {
			slog.Info("ais stream client left before end", "remote", remote, "error", err)
			return
		}
		slog.Info("ais stream complete", "remote", remote, "sent", src.Len())

		// Wait for the client's close so the final frame is not cut off.
		_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}
