package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer starts an httptest server and points the given endpoint
// flag variable at it, restoring the previous value on test cleanup.
func newTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	for _, ep := range []*string{
		&startEndpoint, &abortEndpoint, &saveEndpoint, &submitEndpoint,
		&resetEndpoint, &stateEndpoint, &progressEndpoint, &statusEndpoint,
	} {
		original := *ep
		*ep = ts.URL
		t.Cleanup(func() { *ep = original })
	}
}

func TestRunStartPrintsAcceptedBody(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("harvest started"))
	})

	var buf bytes.Buffer
	startCmd.SetOut(&buf)
	if err := runStart(startCmd, nil); err != nil {
		t.Fatalf("runStart: %v", err)
	}
	if !strings.Contains(buf.String(), "harvest started") {
		t.Errorf("expected body in output, got %q", buf.String())
	}
}

func TestRunStartSurfacesStatusError(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("busy"))
	})

	err := runStart(startCmd, nil)
	if err == nil {
		t.Fatal("expected an error for a 503 response")
	}
	if getExitCode(err) != ExitCodeUnavailable {
		t.Errorf("expected ExitCodeUnavailable, got %d", getExitCode(err))
	}
}

func TestRunStatePrintsBody(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("idle"))
	})

	var buf bytes.Buffer
	stateCmd.SetOut(&buf)
	if err := runState(stateCmd, nil); err != nil {
		t.Fatalf("runState: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "idle" {
		t.Errorf("expected 'idle', got %q", buf.String())
	}
}

func TestRunStatusCombinesThreeRoutes(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte("data-provider: rssFeed\nstate: idle"))
		case "/progress":
			w.Write([]byte("3/10"))
		case "/outdated":
			w.Write([]byte("true"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	var buf bytes.Buffer
	statusCmd.SetOut(&buf)
	if err := runStatus(statusCmd, nil); err != nil {
		t.Fatalf("runStatus: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"state: idle", "progress: 3/10", "outdated: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestRunResetPromptsAndAbortsOnDecline(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("reset should not call the server when the prompt is declined")
	})

	originalYes := resetYes
	resetYes = false
	t.Cleanup(func() { resetYes = originalYes })

	resetCmd.SetIn(strings.NewReader("no\n"))
	var buf bytes.Buffer
	resetCmd.SetOut(&buf)

	if err := runReset(resetCmd, nil); err != nil {
		t.Fatalf("runReset: %v", err)
	}
	if !strings.Contains(buf.String(), "aborted") {
		t.Errorf("expected 'aborted' in output, got %q", buf.String())
	}
}

func TestRunResetSkipsPromptWithYesFlag(t *testing.T) {
	called := false
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})

	originalYes := resetYes
	resetYes = true
	t.Cleanup(func() { resetYes = originalYes })

	var buf bytes.Buffer
	resetCmd.SetOut(&buf)
	if err := runReset(resetCmd, nil); err != nil {
		t.Fatalf("runReset: %v", err)
	}
	if !called {
		t.Error("expected the server to be called when --yes is set")
	}
}
