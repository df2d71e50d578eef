package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mt-krainski/chrzaszcz-simple/internal/httpserver"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/appstate"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/clock"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/watchdog"
)

var testStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeAppState struct {
	healthy bool
	ready   bool
}

func (f fakeAppState) IsHealthy() bool { return f.healthy }
func (f fakeAppState) IsReady() bool   { return f.ready }

func (f fakeAppState) StatusQuery() appstate.Status {
	return appstate.Status{State: "running", StartedAt: testStart}
}

// switchableSink fails every write while fail is set.
type switchableSink struct {
	mu     sync.Mutex
	fail   bool
	motors int
	servos int
}

func (s *switchableSink) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail = fail
}

func (s *switchableSink) ApplyMotor(context.Context, drive.Side, drive.Direction, int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.motors++

	if s.fail {
		return errors.New("bridge offline")
	}

	return nil
}

func (s *switchableSink) ApplyServo(context.Context, int, int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.servos++

	if s.fail {
		return errors.New("controller offline")
	}

	return nil
}

type fixture struct {
	srv      *httpserver.Server
	sink     *switchableSink
	clock    *clock.Manual
	drive    *drive.Service
	arm      *arm.Service
	watchdog *watchdog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.Default()
	sink := &switchableSink{}
	c := clock.NewManual(testStart)

	driveSvc, err := drive.New(logger, sink, c, drive.DefaultMultipliers())
	require.NoError(t, err)

	armSvc := arm.New(logger, sink)

	watchdogSvc, err := watchdog.New(logger, driveSvc, c, watchdog.ProductionConfig())
	require.NoError(t, err)

	srv := httpserver.New(logger, httpserver.Deps{
		AppState: fakeAppState{healthy: true, ready: true},
		Drive:    driveSvc,
		Arm:      armSvc,
		Watchdog: watchdogSvc,
		Clock:    c,
	}, "0")

	return &fixture{
		srv:      srv,
		sink:     sink,
		clock:    c,
		drive:    driveSvc,
		arm:      armSvc,
		watchdog: watchdogSvc,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequestWithContext(t.Context(), method, target, http.NoBody)
	} else {
		req = httptest.NewRequestWithContext(t.Context(), method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestNew(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(slog.Default(), httpserver.Deps{}, "")
	require.NotNil(t, srv)
	require.Equal(t, "http-server", srv.Name())
	require.Error(t, srv.Ping(t.Context()), "not ready before start")
}

func TestServer_SetControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		give     string
		wantCode int
	}{
		{name: "forward", give: "/set_control?left=50&right=50", wantCode: http.StatusOK},
		{name: "spin", give: "/set_control?left=-100&right=100", wantCode: http.StatusOK},
		{name: "missing right", give: "/set_control?left=50", wantCode: http.StatusBadRequest},
		{name: "not a number", give: "/set_control?left=fast&right=1", wantCode: http.StatusBadRequest},
		{name: "out of range", give: "/set_control?left=101&right=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			rec := f.do(t, http.MethodGet, tt.give, "")

			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusOK {
				require.Empty(t, rec.Body.String())

				return
			}

			require.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestServer_SetControl_UpdatesLastCommand(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := f.clock.Advance(time.Second)

	rec := f.do(t, http.MethodGet, "/set_control?left=10&right=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, now, f.drive.LastCommandQuery())
}

func TestServer_Drive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		give     string
		fail     bool
		wantCode int
	}{
		{name: "valid", give: `{"left":40,"right":-40}`, wantCode: http.StatusOK},
		{name: "missing side", give: `{"left":40}`, wantCode: http.StatusBadRequest},
		{name: "unknown field", give: `{"left":1,"right":1,"turbo":true}`, wantCode: http.StatusBadRequest},
		{name: "trailing data", give: `{"left":1,"right":1}{}`, wantCode: http.StatusBadRequest},
		{name: "malformed", give: `{"left":`, wantCode: http.StatusBadRequest},
		{name: "out of range", give: `{"left":0,"right":-120}`, wantCode: http.StatusBadRequest},
		{name: "sink failure", give: `{"left":10,"right":10}`, fail: true, wantCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.sink.setFail(tt.fail)

			rec := f.do(t, http.MethodPost, "/api/v1/drive", tt.give)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestServer_Drive_ReturnsState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/drive", `{"left":40,"right":-30}`)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decode[drive.State](t, rec)
	// left is mirrored
	require.Equal(t, drive.Output{Direction: drive.DirectionReverse, Magnitude: 40}, state.Left)
	require.Equal(t, drive.Output{Direction: drive.DirectionReverse, Magnitude: 30}, state.Right)
}

func TestServer_Drive_RejectsGet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/drive", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Arm(t *testing.T) {
	t.Parallel()

	type armBody struct {
		Joints []int `json:"joints"`
	}

	base := arm.BasePose()

	t.Run("position", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodGet, "/api/v1/arm", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, base[:], decode[armBody](t, rec).Joints)
	})

	t.Run("move clamps at limits", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/arm/move", `{"deltas":[100,1000,-500,-100,0,20000]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []int{5600, 9000, 8500, 3000, 9000, 9000}, decode[armBody](t, rec).Joints)
	})

	t.Run("move with wrong arity", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/arm/move", `{"deltas":[1,2,3]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, base, f.arm.PositionQuery())
	})

	t.Run("servo failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.sink.setFail(true)

		rec := f.do(t, http.MethodPost, "/api/v1/arm/move", `{"deltas":[10,0,0,0,0,0]}`)
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.arm.ApplyDeltasCommand(t.Context(), []int{-500, -500, -500, 500, -500, 500})
		require.NoError(t, err)

		rec := f.do(t, http.MethodPost, "/api/v1/arm/reset", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, base[:], decode[armBody](t, rec).Joints)
		require.Equal(t, base, f.arm.PositionQuery())
	})
}

func TestServer_Status(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.NoError(t, f.drive.ApplyDriveCommand(t.Context(), drive.SourceHTTP, drive.Command{Left: 20, Right: 20}))
	f.clock.Advance(3 * time.Second)

	rec := f.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		LastCommand     string  `json:"lastCommand"`
		LastCommandAgeS float64 `json:"lastCommandAgeSeconds"`
		Arm             struct {
			Joints []int `json:"joints"`
		} `json:"arm"`
		Watchdog struct {
			Timeout string `json:"timeout"`
			Trips   uint64 `json:"trips"`
		} `json:"watchdog"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	require.Equal(t, "3 seconds ago", got.LastCommand)
	require.InDelta(t, 3.0, got.LastCommandAgeS, 0.001)
	require.Len(t, got.Arm.Joints, arm.JointCount)
	require.Equal(t, "500ms", got.Watchdog.Timeout)
	require.Zero(t, got.Watchdog.Trips)
}

func TestServer_Heartbeat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/heartbeat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"heartbeat":0}`, rec.Body.String())

	f.clock.Advance(time.Second)

	rec = f.do(t, http.MethodGet, "/heartbeat", "")
	require.JSONEq(t, `{"heartbeat":1}`, rec.Body.String())
}

func TestServer_Probes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/-/healthz", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/-/readyz", "").Code)

	rec := f.do(t, http.MethodGet, "/-/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "running", decode[map[string]any](t, rec)["state"])

	down := httpserver.New(slog.Default(), httpserver.Deps{AppState: fakeAppState{}}, "0")
	rec = httptest.NewRecorder()
	down.Handler().ServeHTTP(rec, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/-/readyz", http.NoBody))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func dialWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.DialContext(t.Context(), url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return conn
}

func TestServer_WebSocket(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	conn := dialWebSocket(t, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/control")
	defer conn.Close()

	type reply struct {
		OK     bool   `json:"ok"`
		Error  string `json:"error"`
		Joints []int  `json:"joints"`
	}

	tests := []struct {
		name       string
		give       string
		wantOK     bool
		wantJoints bool
	}{
		{name: "drive", give: `{"type":"drive","left":30,"right":30}`, wantOK: true},
		{name: "drive out of range", give: `{"type":"drive","left":300,"right":30}`},
		{name: "drive missing side", give: `{"type":"drive","left":30}`},
		{name: "arm move", give: `{"type":"arm_move","deltas":[10,0,0,0,0,0]}`, wantOK: true, wantJoints: true},
		{name: "arm move bad arity", give: `{"type":"arm_move","deltas":[10]}`},
		{name: "arm reset", give: `{"type":"arm_reset"}`, wantOK: true, wantJoints: true},
		{name: "unknown type", give: `{"type":"dance"}`},
		{name: "malformed", give: `{"type":`},
	}

	// one connection, messages answered in order
	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.give)), tt.name)

		var got reply
		require.NoError(t, conn.ReadJSON(&got), tt.name)

		require.Equal(t, tt.wantOK, got.OK, tt.name)

		if tt.wantOK {
			require.Empty(t, got.Error, tt.name)
		} else {
			require.NotEmpty(t, got.Error, tt.name)
		}

		if tt.wantJoints {
			require.Len(t, got.Joints, arm.JointCount, tt.name)
		}
	}

	state := f.drive.StateQuery()
	require.Equal(t, 30, state.Right.Magnitude)
	require.Equal(t, arm.BasePose(), f.arm.PositionQuery())
}

func TestServer_StartShutdown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.NoError(t, f.srv.Start(t.Context()))

	select {
	case <-f.srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("http server did not become ready")
	}

	require.NoError(t, f.srv.Ping(t.Context()))

	addr := f.srv.Addr().String()

	resp, err := http.Get("http://" + addr + "/heartbeat") //nolint:noctx
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn := dialWebSocket(t, "ws://"+addr+"/ws/control")
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, f.srv.Shutdown(ctx))
	require.NoError(t, f.srv.Shutdown(ctx), "second shutdown is a no-op")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestMetricsServer(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewMetricsServer(slog.Default(), "0")
	require.Equal(t, "metrics-server", srv.Name())

	require.NoError(t, srv.Start(t.Context()))
	<-srv.Ready()
	require.NoError(t, srv.Ping(t.Context()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))
}
