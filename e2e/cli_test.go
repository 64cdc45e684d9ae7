package e2e_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/eventsphere/internal/api"
	"github.com/mcoot/eventsphere/internal/api/handler"
	"github.com/mcoot/eventsphere/internal/factory"
	"github.com/mcoot/eventsphere/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath  string
	serverURL   string
	sessionFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "eventsphere-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/eventsphere")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath:  binaryPath,
		serverURL:   serverURL,
		sessionFile: filepath.Join(t.TempDir(), "session"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	return r.runWithInput("", args...)
}

func (r *cliRunner) runWithInput(stdin string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--session-file", r.sessionFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "EVENTSPHERE_SESSION=", "EVENTSPHERE_PASSWORD=")
	cmd.Stdin = strings.NewReader(stdin)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:              testutil.NopLogger(),
		Metrics:             app.Metrics,
		AuthService:         app.AuthService,
		RegistrationService: app.RegistrationService,
		CheckInService:      app.CheckInService,
		StatsService:        app.StatsService,
		Cookie:              handler.CookieConfig{Name: api.DefaultCookieName},
	})

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type participantResponse struct {
	RegistrationID string     `json:"registration_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Attended       bool       `json:"attended"`
	Timestamp      *time.Time `json:"timestamp"`
}

type checkInResponse struct {
	Message     string              `json:"message"`
	Participant participantResponse `json:"participant"`
}

type statsResponse struct {
	Total     int `json:"total"`
	CheckedIn int `json:"checkedIn"`
}

type scanResponse struct {
	Code      string `json:"code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_EventDayFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Two participants register
	output, err := cli.run("register", "--name", "Ada Lovelace", "--email", "ada@example.com")
	require.NoError(t, err, "output: %s", output)
	var ada participantResponse
	require.NoError(t, json.Unmarshal([]byte(output), &ada))
	assert.False(t, ada.Attended)

	output, err = cli.run("register", "--name", "Grace Hopper", "--email", "grace@example.com")
	require.NoError(t, err, "output: %s", output)
	var grace participantResponse
	require.NoError(t, json.Unmarshal([]byte(output), &grace))

	// Registering the same email again fails
	output, err = cli.run("register", "--name", "Ada", "--email", "ada@example.com")
	require.Error(t, err)
	assert.Contains(t, output, "DUPLICATE_EMAIL")

	// Admin commands need a session
	output, err = cli.run("stats")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	// Log in; the session is saved to the session file
	output, err = cli.run("login", "--user", factory.TestAdminUsername, "--pass", factory.TestAdminPassword)
	require.NoError(t, err, "output: %s", output)

	// Manual check-in
	output, err = cli.run("checkin", ada.RegistrationID)
	require.NoError(t, err, "output: %s", output)
	var checkIn checkInResponse
	require.NoError(t, json.Unmarshal([]byte(output), &checkIn))
	assert.Equal(t, "Welcome, Ada Lovelace! Check-in successful.", checkIn.Message)
	assert.True(t, checkIn.Participant.Attended)
	assert.NotNil(t, checkIn.Participant.Timestamp)

	// Scanner feed: Ada again is rejected, Grace is checked in
	output, err = cli.runWithInput(ada.RegistrationID+"\n"+grace.RegistrationID+"\n", "scan", "--debounce", "1ns")
	require.NoError(t, err, "output: %s", output)

	var scans []scanResponse
	dec := json.NewDecoder(strings.NewReader(output))
	for dec.More() {
		var s scanResponse
		require.NoError(t, dec.Decode(&s))
		scans = append(scans, s)
	}
	require.Len(t, scans, 2)
	assert.Equal(t, "ALREADY_CHECKED_IN", scans[0].ErrorCode)
	assert.Equal(t, "Ada Lovelace is already checked in.", scans[0].Message)
	assert.Equal(t, "checked_in", scans[1].Status)

	// Stats and listing
	output, err = cli.run("stats")
	require.NoError(t, err, "output: %s", output)
	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, statsResponse{Total: 2, CheckedIn: 2}, stats)

	output, err = cli.run("participants")
	require.NoError(t, err, "output: %s", output)
	var list []participantResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Len(t, list, 2)

	// Log out; admin commands fail again
	output, err = cli.run("logout")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("participants")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}

func TestCLI_CheckInUnknownID(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("login", "--pass", factory.TestAdminPassword)
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("checkin", "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, output, "Participant not found!")
}
