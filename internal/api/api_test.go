package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/eventsphere/internal/api"
	"github.com/mcoot/eventsphere/internal/api/apierr"
	"github.com/mcoot/eventsphere/internal/api/handler"
	"github.com/mcoot/eventsphere/internal/api/response"
	"github.com/mcoot/eventsphere/internal/factory"
	"github.com/mcoot/eventsphere/internal/testutil"
)

// testServer wires the router to a TestApp
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:              testutil.NopLogger(),
		Metrics:             app.Metrics,
		AuthService:         app.AuthService,
		RegistrationService: app.RegistrationService,
		CheckInService:      app.CheckInService,
		StatsService:        app.StatsService,
		Cookie:              handler.CookieConfig{Name: api.DefaultCookieName},
		AllowedOrigins:      []string{"https://checkin.example.com"},
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// login returns the session cookie issued for the test admin
func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()

	rr := ts.request(http.MethodPost, "/login", map[string]string{
		"username": factory.TestAdminUsername,
		"password": factory.TestAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	for _, c := range rr.Result().Cookies() {
		if c.Name == api.DefaultCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (ts *testServer) register(t *testing.T, name, email string) response.Participant {
	t.Helper()

	rr := ts.request(http.MethodPost, "/register", map[string]string{"name": name, "email": email}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var p response.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var body apierr.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

// Registration

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	p := ts.register(t, "Ada", "ada@x.com")

	assert.NotEmpty(t, p.RegistrationID)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "ada@x.com", p.Email)
	assert.False(t, p.Attended)
	assert.Nil(t, p.Timestamp)
}

func TestRegisterKeepsSubmittedEmail(t *testing.T) {
	ts := newTestServer(t)

	for _, email := range []string{"ada", "ada@localhost", "Ada@X.com"} {
		p := ts.register(t, "Ada", email)
		assert.Equal(t, email, p.Email)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []map[string]string{
		{"email": "ada@x.com"},
		{"name": "Ada"},
		{"name": "  ", "email": "ada@x.com"},
	} {
		rr := ts.request(http.MethodPost, "/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
	}
}

func TestRegisterMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"name":`))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Ada", "ada@x.com")

	rr := ts.request(http.MethodPost, "/register", map[string]string{"name": "Ada Again", "email": "ada@x.com"}, nil)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeDuplicateEmail, decodeError(t, rr).Code)
}

// Auth

func TestLoginSetsHardenedCookie(t *testing.T) {
	ts := newTestServer(t)

	cookie := ts.login(t)

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.NotEmpty(t, cookie.Value)
}

func TestLoginMessage(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/login", map[string]string{
		"username": factory.TestAdminUsername,
		"password": factory.TestAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Login successful."}`, rr.Body.String())
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)

	for _, creds := range []map[string]string{
		{"username": factory.TestAdminUsername, "password": "wrong"},
		{"username": "root", "password": factory.TestAdminPassword},
	} {
		rr := ts.request(http.MethodPost, "/login", creds, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		body := decodeError(t, rr)
		assert.Equal(t, apierr.CodeInvalidCredentials, body.Code)
		assert.Equal(t, "Invalid username or password", body.Message)
		assert.Empty(t, rr.Result().Cookies())
	}
}

func TestSessionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/session", nil, ts.login(t))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	rr := ts.request(http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Logout successful."}`, rr.Body.String())

	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Negative(t, cleared[0].MaxAge)

	// The old cookie must not authorize anything afterwards
	rr = ts.request(http.MethodGet, "/stats", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestExpiredSessionRejected(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	ts.app.MockClock.Advance(24*time.Hour + time.Second)

	rr := ts.request(http.MethodGet, "/participants", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestForgedCookieRejected(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	flipped := "A"
	if strings.HasPrefix(cookie.Value, "A") {
		flipped = "B"
	}

	// The raw session token is known to the test; only the signed value may authorize
	for _, value := range []string{"token-1", flipped + cookie.Value[1:], cookie.Value + "x"} {
		forged := &http.Cookie{Name: api.DefaultCookieName, Value: value}
		rr := ts.request(http.MethodGet, "/stats", nil, forged)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, value)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)
	p := ts.register(t, "Ada", "ada@x.com")

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/participants"},
		{http.MethodGet, "/stats"},
		{http.MethodPost, "/checkin/" + p.RegistrationID},
	} {
		rr := ts.request(route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, route.path)
		assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)
	}

	// The rejected check-in must not have changed anything
	stats, err := ts.app.StatsService.GetStats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CheckedIn)
}

// Check-in

func TestCheckInFlow(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)
	p := ts.register(t, "Ada", "ada@x.com")

	rr := ts.request(http.MethodPost, "/checkin/"+p.RegistrationID, nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.CheckIn
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Welcome, Ada! Check-in successful.", resp.Message)
	assert.True(t, resp.Participant.Attended)
	assert.NotNil(t, resp.Participant.Timestamp)

	rr = ts.request(http.MethodPost, "/checkin/"+p.RegistrationID, nil, cookie)
	assert.Equal(t, http.StatusConflict, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, "Ada is already checked in.", body.Message)
	assert.Equal(t, apierr.CodeAlreadyCheckedIn, body.Code)
}

func TestCheckInUnknownID(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	rr := ts.request(http.MethodPost, "/checkin/bogus-id", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, "Participant not found!", body.Message)
	assert.Equal(t, apierr.CodeParticipantNotFound, body.Code)
}

func TestCheckInOddIDsAreNotFound(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	for _, id := range []string{"..", ".", "a%2Fb", "%2E%2E", "%20", "a%2F..%2Fb"} {
		rr := ts.request(http.MethodPost, "/checkin/"+id, nil, cookie)
		require.Equal(t, http.StatusNotFound, rr.Code, id)
		assert.Equal(t, apierr.CodeParticipantNotFound, decodeError(t, rr).Code, id)
	}
}

func TestCheckInEscapedID(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)
	ts.app.MockRandom.QueueUUID("gate/7 a")
	ts.register(t, "Ada", "ada@x.com")

	rr := ts.request(http.MethodPost, "/checkin/gate%2F7%20a", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.CheckIn
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "gate/7 a", resp.Participant.RegistrationID)
}

func TestConcurrentCheckInsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)
	p := ts.register(t, "Ada", "ada@x.com")

	const callers = 10
	codes := make([]int, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = ts.request(http.MethodPost, "/checkin/"+p.RegistrationID, nil, cookie).Code
		}()
	}
	wg.Wait()

	counts := map[int]int{}
	for _, c := range codes {
		counts[c]++
	}
	assert.Equal(t, 1, counts[http.StatusOK])
	assert.Equal(t, callers-1, counts[http.StatusConflict])
}

// Listing and stats

func TestListParticipantsNewestFirst(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	ts.register(t, "Ada", "ada@x.com")
	ts.app.MockClock.Advance(time.Minute)
	ts.register(t, "Grace", "grace@x.com")

	rr := ts.request(http.MethodGet, "/participants", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []response.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Grace", list[0].Name)
	assert.Equal(t, "Ada", list[1].Name)
}

func TestListParticipantsEmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/participants", nil, ts.login(t))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	ada := ts.register(t, "Ada", "ada@x.com")
	ts.register(t, "Grace", "grace@x.com")
	ts.request(http.MethodPost, "/checkin/"+ada.RegistrationID, nil, cookie)

	rr := ts.request(http.MethodGet, "/stats", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":2,"checkedIn":1,"checked_in":1}`, rr.Body.String())
}

// Routing and CORS

func TestUnknownRouteIsJSON(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decodeError(t, rr).Code)
}

func TestWrongMethod(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/register", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestPreflightFromAllowedOrigin(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/checkin/abc", nil)
	req.Header.Set("Origin", "https://checkin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)
	p := ts.register(t, "Ada", "ada@x.com")
	ts.request(http.MethodPost, "/checkin/"+p.RegistrationID, nil, cookie)

	rr := ts.request(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `eventsphere_checkins_total{outcome="success"} 1`)
	assert.Contains(t, rr.Body.String(), `route="/checkin/{id}"`)
}
