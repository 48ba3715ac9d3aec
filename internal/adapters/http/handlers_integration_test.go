//go:build integration

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	handler "github.com/samirrijal/aissim/internal/adapters/http"
	"github.com/samirrijal/aissim/internal/adapters/postgres"
	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/maprender"
	"github.com/samirrijal/aissim/internal/pkg/config"
)

// setupTestDB connects to the test database and applies the schema.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("aissim-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../../migrations/001_ais_messages.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with the real repository and no cache.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	repo := postgres.NewAISMessageRepo(db)
	return &handler.Dependencies{
		Vessels:  usecases.NewVesselService(repo, nil),
		Ingest:   usecases.NewIngestService(repo, nil, nil),
		Renderer: maprender.NewRenderer(),
		DB:       db,
	}
}

func postSentence(t *testing.T, deps *handler.Dependencies, msg domain.AISSentence) domain.AISRecord {
	t.Helper()
	body, _ := json.Marshal(msg)
	req := httptest.NewRequest("POST", "/v1/ingest", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := setupApp(deps).Test(req, -1)
	if err != nil {
		t.Fatalf("ingest request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var rec domain.AISRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

// TestIngestThenQuery_Integration stores a simulated voyage over HTTP and reads it back.
func TestIngestThenQuery_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	deps := setupTestDeps(db)
	ctx := context.Background()

	const mmsi = "123456789"
	if _, err := deps.Vessels.Discard(ctx, mmsi); err != nil {
		t.Fatalf("clean vessel: %v", err)
	}
	t.Cleanup(func() { _, _ = deps.Vessels.Discard(ctx, mmsi) })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	positions := []domain.Position{
		{Location: domain.GeoPoint{Lat: 51.90, Lon: 4.00}, Timestamp: base},
		{Location: domain.GeoPoint{Lat: 52.00, Lon: 4.00}, Timestamp: base.Add(30 * time.Minute)},
		{Location: domain.GeoPoint{Lat: 52.10, Lon: 4.00}, Timestamp: base.Add(time.Hour)},
	}
	for _, msg := range usecases.EncodePositions(mmsi, positions, 12) {
		if rec := postSentence(t, deps, msg); !rec.IsValid {
			t.Fatalf("expected valid record, got %+v", rec)
		}
	}

	// Same (mmsi, timestamp) again is accepted but not stored twice.
	dup := postSentence(t, deps, usecases.EncodePositions(mmsi, positions[:1], 12)[0])
	if dup.ID != 0 {
		t.Errorf("expected duplicate to report id 0, got %d", dup.ID)
	}

	app := setupApp(deps)
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/vessels/"+mmsi+"/track", nil), -1)
	if err != nil {
		t.Fatalf("track request: %v", err)
	}
	var track struct {
		Track []domain.TrackPoint `json:"track"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		t.Fatalf("decode track: %v", err)
	}
	if len(track.Track) != 3 {
		t.Fatalf("expected 3 fixes, got %d", len(track.Track))
	}

	url := fmt.Sprintf("/v1/vessels/%s/stats?start_time=%s&end_time=%s",
		mmsi, base.Format(time.RFC3339), base.Add(30*time.Minute).Format(time.RFC3339))
	resp, err = app.Test(httptest.NewRequest("GET", url, nil), -1)
	if err != nil {
		t.Fatalf("stats request: %v", err)
	}
	var stats domain.VesselStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	// 0.1 degree of latitude is about 6 nautical miles.
	if stats.Distance < 5.5 || stats.Distance > 6.5 {
		t.Errorf("expected ~6 NM in window, got %f", stats.Distance)
	}
	if stats.AvgSpeed < 11.9 || stats.AvgSpeed > 12.1 {
		t.Errorf("expected 12 kn, got %f", stats.AvgSpeed)
	}
}

// TestReady_Integration checks readiness against a live database.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	deps := setupTestDeps(setupTestDB(t))
	resp, err := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
