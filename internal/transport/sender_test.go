package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
)

func newTestSender(settings config.Settings) *Sender {
	return NewSender(
		func() config.Settings { return settings },
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestSendPostsReport(t *testing.T) {
	var gotPath, gotQuery, gotContentType string
	var gotBody domain.Report

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSender(config.Settings{ServerID: "42", Password: "abc", URL: srv.URL})

	rep := domain.Report{
		ScoreCT: 7,
		ScoreT:  8,
		Players: []domain.PlayerRecord{{
			Name: "Alice", SteamID: "76561197960435113",
			Kills: 5, Assists: 1, Death: 2, Playtime: 95,
		}},
	}
	if err := s.Send(context.Background(), rep); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != MonitoringPath {
		t.Errorf("path = %q, want %q", gotPath, MonitoringPath)
	}
	if gotQuery != "password=abc&server=42" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody.ScoreCT != 7 || len(gotBody.Players) != 1 || gotBody.Players[0].Death != 2 {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestSendDisabled(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	for _, st := range []config.Settings{
		{Password: "abc", URL: srv.URL},
		{ServerID: "42", URL: srv.URL},
		{ServerID: "42", Password: "abc"},
		{},
	} {
		err := newTestSender(st).Send(context.Background(), domain.Report{})
		if !errors.Is(err, domain.ErrReportingDisabled) {
			t.Errorf("Send with %+v: err = %v, want ErrReportingDisabled", st, err)
		}
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("%d requests made while disabled, want 0", n)
	}
}

func TestSendNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	s := newTestSender(config.Settings{ServerID: "42", Password: "abc", URL: srv.URL})
	err := s.Send(context.Background(), domain.Report{Players: make([]domain.PlayerRecord, 0)})
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if errors.Is(err, domain.ErrReportingDisabled) {
		t.Error("a rejected send must not look like disabled reporting")
	}
}

func TestSendUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // deliberately down

	s := newTestSender(config.Settings{ServerID: "42", Password: "abc", URL: srv.URL})
	if err := s.Send(context.Background(), domain.Report{}); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
