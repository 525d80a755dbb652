package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/AtharvaManchalkar/DriveOps/internal/inventory"
	"github.com/AtharvaManchalkar/DriveOps/internal/services"
)

func selectionRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Client-ID", "browser-1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeSelection(t *testing.T, w *httptest.ResponseRecorder) services.Selection {
	t.Helper()
	var s services.Selection
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("selection body: %v (%s)", err, w.Body.String())
	}
	return s
}

func TestCompareCars_ExplicitIDs(t *testing.T) {
	f := newFixture()
	var got []string
	f.cars.compare = func(_ context.Context, ids []string) (inventory.Matrix, error) {
		got = ids
		return inventory.Matrix{Columns: []inventory.Column{{ID: ids[0]}}}, nil
	}
	w := f.do(httptest.NewRequest(http.MethodGet, "/compare?ids=a,b&ids=c", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("ids=%v", got)
	}
}

func TestCompareCars_FallsBackToSelection(t *testing.T) {
	f := newFixture()
	f.cmp.sel["client:browser-1"] = []string{"x", "y"}
	var got []string
	f.cars.compare = func(_ context.Context, ids []string) (inventory.Matrix, error) {
		got = ids
		return inventory.Matrix{}, nil
	}
	if w := f.do(selectionRequest(http.MethodGet, "/compare", "")); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("ids=%v", got)
	}
}

func TestSelection_ToggleReplaceClear(t *testing.T) {
	f := newFixture()

	w := f.do(selectionRequest(http.MethodGet, "/compare/selection", ""))
	if s := decodeSelection(t, w); len(s.IDs) != 0 || s.Cap != 3 {
		t.Fatalf("initial=%+v", s)
	}

	for _, id := range []string{"a", "b", "c"} {
		w = f.do(selectionRequest(http.MethodPost, "/compare/selection/toggle", `{"id":"`+id+`"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("toggle %s: %d %s", id, w.Code, w.Body.String())
		}
	}

	w = f.do(selectionRequest(http.MethodPost, "/compare/selection/toggle", `{"id":"d"}`))
	if w.Code != http.StatusConflict || decodeError(t, w).Code != ErrCodeSelectionFull {
		t.Fatalf("over cap: %d %s", w.Code, w.Body.String())
	}

	// Toggling a member removes it.
	w = f.do(selectionRequest(http.MethodPost, "/compare/selection/toggle", `{"id":"b"}`))
	if s := decodeSelection(t, w); !reflect.DeepEqual(s.IDs, []string{"a", "c"}) {
		t.Fatalf("after remove=%v", s.IDs)
	}

	w = f.do(selectionRequest(http.MethodPut, "/compare/selection", `{"ids":["z"]}`))
	if s := decodeSelection(t, w); !reflect.DeepEqual(s.IDs, []string{"z"}) {
		t.Fatalf("after replace=%v", s.IDs)
	}

	if w = f.do(selectionRequest(http.MethodDelete, "/compare/selection", "")); w.Code != http.StatusNoContent {
		t.Fatalf("clear: %d", w.Code)
	}
	if _, ok := f.cmp.sel["client:browser-1"]; ok {
		t.Fatal("selection not cleared")
	}
}

func TestToggleSelection_MissingID(t *testing.T) {
	f := newFixture()
	w := f.do(selectionRequest(http.MethodPost, "/compare/selection/toggle", `{}`))
	if w.Code != http.StatusBadRequest || decodeError(t, w).Field != "id" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSelection_IsPerOwner(t *testing.T) {
	f := newFixture()
	f.do(selectionRequest(http.MethodPost, "/compare/selection/toggle", `{"id":"a"}`))

	req := httptest.NewRequest(http.MethodGet, "/compare/selection", nil)
	req.Header.Set("X-Client-ID", "browser-2")
	if s := decodeSelection(t, f.do(req)); len(s.IDs) != 0 {
		t.Fatalf("other owner sees %v", s.IDs)
	}
}

func TestSelectionEvents_StreamsCurrentThenChanges(t *testing.T) {
	f := newFixture()
	f.cmp.sel["client:browser-1"] = []string{"a1"}
	f.cmp.events = make(chan *services.Selection, 2)
	f.cmp.events <- &services.Selection{IDs: []string{"a1", "b2"}, Cap: 3}
	close(f.cmp.events)

	w := f.do(selectionRequest(http.MethodGet, "/compare/selection/events", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content-type=%q", ct)
	}
	body := w.Body.String()
	if n := strings.Count(body, "event:selection"); n != 2 {
		t.Fatalf("want 2 selection events, got %d in %q", n, body)
	}
	first := strings.Index(body, `"ids":["a1"]`)
	second := strings.Index(body, `"ids":["a1","b2"]`)
	if first < 0 || second < first {
		t.Fatalf("events out of order or missing: %q", body)
	}
	if !reflect.DeepEqual(f.cmp.subOwners, []string{"client:browser-1"}) {
		t.Fatalf("subscribed owners=%v", f.cmp.subOwners)
	}
}

func TestSelectionEvents_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.cmp.subErr = services.ErrUpstreamUnavailable
	w := f.do(selectionRequest(http.MethodGet, "/compare/selection/events", ""))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
