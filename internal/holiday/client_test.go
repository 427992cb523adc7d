package holiday

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHolidays_ParsesDates(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2025-01-01","localName":"Nový rok"},
			{"date":"2025-07-05","localName":"Sviatok svätého Cyrila a Metoda"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "SK", time.Second, discardLogger())
	dates := c.Holidays(context.Background(), 2025)

	if gotPath != "/2025/SK" {
		t.Fatalf("path = %q, want %q", gotPath, "/2025/SK")
	}
	if len(dates) != 2 {
		t.Fatalf("len(dates) = %d, want 2", len(dates))
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !dates[0].Equal(want) {
		t.Fatalf("dates[0] = %v, want %v", dates[0], want)
	}
}

func TestHolidays_SkipsMalformedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"not a date"},{"date":"2025-12-24"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "SK", time.Second, discardLogger())
	dates := c.Holidays(context.Background(), 2025)
	if len(dates) != 1 {
		t.Fatalf("len(dates) = %d, want 1", len(dates))
	}
}

func TestHolidays_DegradesToEmptySet(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "SK", time.Second, discardLogger())
		if dates := c.Holidays(context.Background(), 2025); len(dates) != 0 {
			t.Fatalf("dates = %v, want empty", dates)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"oops":`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "SK", time.Second, discardLogger())
		if dates := c.Holidays(context.Background(), 2025); len(dates) != 0 {
			t.Fatalf("dates = %v, want empty", dates)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		c := NewClient(srv.URL, "SK", time.Second, discardLogger())
		if dates := c.Holidays(context.Background(), 2025); len(dates) != 0 {
			t.Fatalf("dates = %v, want empty", dates)
		}
	})

	t.Run("slow upstream times out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "SK", 20*time.Millisecond, discardLogger())
		start := time.Now()
		dates := c.Holidays(context.Background(), 2025)
		if len(dates) != 0 {
			t.Fatalf("dates = %v, want empty", dates)
		}
		if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
			t.Fatalf("fetch took %v, timeout not applied", elapsed)
		}
	})
}
