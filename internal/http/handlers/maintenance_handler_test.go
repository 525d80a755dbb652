package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

func TestListMaintenance_EmptyIsArray(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, "/cars/car1/maintenance", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"records":[]`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestListMaintenance_UnknownCar(t *testing.T) {
	f := newFixture()
	if w := f.do(httptest.NewRequest(http.MethodGet, "/cars/nope/maintenance", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCreateMaintenance(t *testing.T) {
	f := newFixture()
	body := `{"title":"Oil change","date":"2024-03-01","serviceType":"maintenance","cost":89.5}`
	req := httptest.NewRequest(http.MethodPost, "/cars/car1/maintenance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var rec domain.MaintenanceRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.CarID != "car1" || rec.Title != "Oil change" {
		t.Fatalf("record=%+v", rec)
	}
	if f.maint.lastIn.Cost == nil || *f.maint.lastIn.Cost != 89.5 || f.maint.lastIn.Date != "2024-03-01" {
		t.Fatalf("input=%+v", f.maint.lastIn)
	}
}

func TestCreateMaintenance_BadJSON(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/cars/car1/maintenance", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != ErrCodeBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateMaintenance_ValidationError(t *testing.T) {
	f := newFixture()
	f.maint.err = &domain.ValidationError{Field: "serviceType", Reason: "must be one of maintenance, repair, inspection, upgrade, other"}
	req := httptest.NewRequest(http.MethodPost, "/cars/car1/maintenance", strings.NewReader(`{"title":"x","serviceType":"wash"}`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Field != "serviceType" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteMaintenance(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodDelete, "/cars/car1/maintenance/m1", nil))
	if w.Code != http.StatusNoContent || f.maint.deleted != "car1/m1" {
		t.Fatalf("status=%d deleted=%q", w.Code, f.maint.deleted)
	}
	if w := f.do(httptest.NewRequest(http.MethodDelete, "/cars/car1/maintenance/m9", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
