package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"taskify-project/microservices/tasks-service/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.Logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var deadline = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func TestParseCadence(t *testing.T) {
	c, err := ParseCadence(" Daily\n")
	require.NoError(t, err)
	assert.Equal(t, Daily, c)

	_, err = ParseCadence("monthly")
	assert.ErrorIs(t, err, ErrUnknownCadence)
}

func newTestHTTPClassifier(url string) *HTTPClassifier {
	c := NewHTTPClassifier(url, time.Second, nil)
	c.delay = time.Millisecond
	return c
}

func TestHTTPClassifier_Classify(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reminder":"weekly"}`))
	}))
	defer srv.Close()

	cadence, err := newTestHTTPClassifier(srv.URL).Classify(context.Background(), "write report", "high", deadline)
	require.NoError(t, err)
	assert.Equal(t, Weekly, cadence)
	assert.Equal(t, predictRequest{Description: "write report", Priority: "high", Deadline: "2024-06-01"}, got)
}

func TestHTTPClassifier_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reminder":"immediate"}`))
	}))
	defer srv.Close()

	cadence, err := newTestHTTPClassifier(srv.URL).Classify(context.Background(), "d", "high", deadline)
	require.NoError(t, err)
	assert.Equal(t, Immediate, cadence)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPClassifier_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestHTTPClassifier(srv.URL).Classify(context.Background(), "d", "high", deadline)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPClassifier_UnknownCadence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reminder":"monthly"}`))
	}))
	defer srv.Close()

	_, err := newTestHTTPClassifier(srv.URL).Classify(context.Background(), "d", "high", deadline)
	assert.ErrorIs(t, err, ErrUnknownCadence)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "predict.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestCommandClassifier_PassesArguments(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\n[ \"$2\" = high ] && [ \"$3\" = 2024-06-01 ] && echo \"$1\"\n")

	cadence, err := NewCommandClassifier("sh", script, time.Second).Classify(context.Background(), "daily", "high", deadline)
	require.NoError(t, err)
	assert.Equal(t, Daily, cadence)
}

func TestCommandClassifier_Failure(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho 'model missing' >&2\nexit 1\n")

	_, err := NewCommandClassifier("sh", script, time.Second).Classify(context.Background(), "d", "high", deadline)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model missing")
}

func TestCommandClassifier_Timeout(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nsleep 5\necho daily\n")

	start := time.Now()
	_, err := NewCommandClassifier("sh", script, 50*time.Millisecond).Classify(context.Background(), "d", "high", deadline)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}
