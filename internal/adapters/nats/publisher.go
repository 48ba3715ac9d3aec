package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// Subject roots. Each message is published under <root>.<mmsi>.
const (
	PositionSubjectRoot = "ais.position"
	InvalidSubjectRoot  = "ais.invalid"
)

// PositionSubject returns the subject for one vessel, or all vessels when
// mmsi is empty.
func PositionSubject(mmsi string) string {
	return subject(PositionSubjectRoot, mmsi)
}

// InvalidSubject is PositionSubject for rejected messages.
func InvalidSubject(mmsi string) string {
	return subject(InvalidSubjectRoot, mmsi)
}

func subject(root, mmsi string) string {
	if mmsi == "" {
		return root + ".>"
	}
	return root + "." + mmsi
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "AIS_POSITIONS",
			Subjects:  []string{PositionSubject("")},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "AIS_INVALID",
			Subjects:  []string{InvalidSubject("")},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishPosition(ctx context.Context, rec *domain.AISRecord) error {
	return p.publish(ctx, recordSubject(PositionSubjectRoot, rec.MMSI), rec)
}

func (p *Publisher) PublishInvalid(ctx context.Context, rec *domain.AISRecord) error {
	return p.publish(ctx, recordSubject(InvalidSubjectRoot, rec.MMSI), rec)
}

// UnknownMMSI is the subject token for records whose MMSI cannot form a
// publishable subject.
const UnknownMMSI = "unknown"

// recordSubject is the concrete subject a record is published on. NATS
// rejects publishes to wildcards, so an empty MMSI or one that is not a
// single plain token maps to UnknownMMSI.
func recordSubject(root, mmsi string) string {
	if mmsi == "" || strings.ContainsAny(mmsi, ".*> \t\r\n") {
		mmsi = UnknownMMSI
	}
	return root + "." + mmsi
}

func (p *Publisher) publish(ctx context.Context, subj string, rec *domain.AISRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subj, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for core subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
