package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWeather_Invoke(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current":{"temperature_2m":21.5}}`))
	}))
	defer srv.Close()

	wt := NewWeather(srv.URL)
	out, err := wt.Invoke(context.Background(),
		json.RawMessage(`{"latitude":52.52,"longitude":13.41}`), Context{UserID: 1})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if gotPath != "/v1/forecast" {
		t.Fatalf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "latitude=52.52") || !strings.Contains(gotQuery, "longitude=13.41") {
		t.Fatalf("query = %q", gotQuery)
	}
	if !strings.Contains(out, "temperature_2m") {
		t.Fatalf("result = %q", out)
	}
}

func TestWeather_InvokeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wt := NewWeather(srv.URL)
	if _, err := wt.Invoke(context.Background(),
		json.RawMessage(`{"latitude":0,"longitude":0}`), Context{}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestWeather_InvokeBadArgs(t *testing.T) {
	wt := NewWeather("http://unused")
	if _, err := wt.Invoke(context.Background(), json.RawMessage(`not json`), Context{}); err == nil {
		t.Fatalf("expected error on bad args")
	}
}
