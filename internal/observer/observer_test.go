package observer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/engine"
	"github.com/cxd309/transit-sim/internal/kinematics"
	"github.com/cxd309/transit-sim/internal/network"
)

var u1 = network.LineName{Mode: kinematics.ModeSubway, Variant: 1}

func testSnapshot() engine.Snapshot {
	return engine.Snapshot{
		RunID:    "run",
		Tick:     7,
		Stations: []engine.StationReport{{ID: 0, Name: "A"}, {ID: 3, Name: "D"}},
		Pods:     []engine.PodReport{{ID: 0, Line: u1, State: "in_station"}},
		People:   []engine.PersonReport{{ID: 0, State: "riding_pod", Pod: 0}},
	}
}

func get(t *testing.T, o *Observer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	o.Router().ServeHTTP(rr, req)
	return rr
}

func TestSnapshotEndpoints(t *testing.T) {
	o := New(log.New(io.Discard))
	defer o.Close()

	if rr := get(t, o, "/api/snapshot"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before the first frame, got %d", rr.Code)
	}
	o.Frame(testSnapshot())

	rr := get(t, o, "/api/snapshot")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.Tick != 7 || len(snap.Stations) != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(snap.Pods) != 1 || snap.Pods[0].Line != u1 {
		t.Errorf("expected pod on U1, got %+v", snap.Pods)
	}

	rr = get(t, o, "/api/stations/3")
	var st engine.StationReport
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil || st.Name != "D" {
		t.Errorf("expected station D, got %s (%v)", rr.Body.String(), err)
	}
	if rr := get(t, o, "/api/stations/9"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if rr := get(t, o, "/api/people/0"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "riding_pod") {
		t.Errorf("unexpected person response %d %s", rr.Code, rr.Body.String())
	}
	if rr := get(t, o, "/api/pods/x"); rr.Code != http.StatusNotFound {
		t.Errorf("expected non-numeric id not to route, got %d", rr.Code)
	}
}

func TestVisibilityHints(t *testing.T) {
	o := New(log.New(io.Discard))
	defer o.Close()
	o.Visibility(command.Visibility{Entity: command.EntityPod, ID: 2, Show: true, Follow: true})
	o.Visibility(command.Visibility{Entity: command.EntityPerson, ID: 1, Show: false, Permanent: true})
	o.Visibility(command.Visibility{Entity: command.EntityStation, ID: 4, Show: true})
	o.Visibility(command.Visibility{Entity: command.EntityStation, ID: 4, Show: false})

	var hints []Hint
	if err := json.Unmarshal(get(t, o, "/api/hints").Body.Bytes(), &hints); err != nil {
		t.Fatal(err)
	}
	if len(hints) != 2 {
		t.Fatalf("expected 2 hints, got %+v", hints)
	}
	if hints[0].Entity != command.EntityPerson || hints[0].Show || !hints[0].Permanent {
		t.Errorf("unexpected first hint %+v", hints[0])
	}
	if hints[1].Entity != command.EntityPod || !hints[1].Follow {
		t.Errorf("unexpected second hint %+v", hints[1])
	}
}

func TestWebsocketStreamsFrames(t *testing.T) {
	o := New(log.New(io.Discard))
	defer o.Close()
	o.Frame(testSnapshot())

	srv := httptest.NewServer(o.Router())
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("reading first frame: %v", err)
	}
	if f.Snapshot.Tick != 7 {
		t.Errorf("expected the latest frame on connect, got tick %d", f.Snapshot.Tick)
	}

	next := testSnapshot()
	next.Tick = 8
	deadline := time.Now().Add(5 * time.Second)
	for f.Snapshot.Tick != 8 && time.Now().Before(deadline) {
		o.Frame(next)
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("reading frame: %v", err)
		}
	}
	if f.Snapshot.Tick != 8 {
		t.Errorf("expected broadcast of tick 8, got %d", f.Snapshot.Tick)
	}
}
