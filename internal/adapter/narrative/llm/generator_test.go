package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

func TestDescribeBreakthrough_PostsFactsAndReturnsCompletion(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Thunder splits the sky.  "}}]}`))
	}))
	defer srv.Close()

	g, err := New(Config{Endpoint: srv.URL, APIKey: "secret", Model: "narrator-small", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text, err := g.DescribeBreakthrough(context.Background(), ports.NarrativeRequest{
		Character: cultivation.Character{Name: "Han Li", Age: 40},
		Summary:   cultivation.BreakthroughSummary{Success: true, Type: cultivation.BreakthroughNormal},
	})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if text != "Thunder splits the sky." {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Model != "narrator-small" || len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", gotBody)
	}
	if !strings.Contains(gotBody.Messages[1].Content, "Han Li") {
		t.Fatalf("expected facts in prompt, got %q", gotBody.Messages[1].Content)
	}
}

func TestDescribeBreakthrough_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := New(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := g.DescribeBreakthrough(context.Background(), ports.NarrativeRequest{}); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestDescribeBreakthrough_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g, err := New(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := g.DescribeBreakthrough(context.Background(), ports.NarrativeRequest{}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestDescribeBreakthrough_SlowUpstreamTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	g, err := New(Config{Endpoint: srv.URL, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	start := time.Now()
	if _, err := g.DescribeBreakthrough(context.Background(), ports.NarrativeRequest{}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected bounded wait, took %v", elapsed)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
