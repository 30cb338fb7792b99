package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"harvester/internal/client"
)

func TestDispatchShellCommandRunsKnownCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("idle"))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	err := dispatchShellCommand(context.Background(), &buf, client.New(ts.URL), "state")
	if err != nil {
		t.Fatalf("dispatchShellCommand: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "idle" {
		t.Errorf("expected 'idle', got %q", buf.String())
	}
}

func TestDispatchShellCommandReportsUnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	err := dispatchShellCommand(context.Background(), &buf, client.New("http://127.0.0.1:1"), "bogus")
	if err != nil {
		t.Fatalf("dispatchShellCommand: %v", err)
	}
	if !strings.Contains(buf.String(), `unknown command "bogus"`) {
		t.Errorf("expected unknown command message, got %q", buf.String())
	}
}

func TestDispatchShellCommandSurfacesClientError(t *testing.T) {
	var buf bytes.Buffer
	err := dispatchShellCommand(context.Background(), &buf, client.New("http://127.0.0.1:1"), "state")
	if err == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
}
