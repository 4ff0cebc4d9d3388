package attendance

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rollcall/cmd/identity"
	authapi "rollcall/cmd/internal/auth/api"
)

type capturedEvents struct {
	events []Event
}

func (c *capturedEvents) Publish(ev Event) {
	c.events = append(c.events, ev)
}

func newTestMux(t *testing.T) (*http.ServeMux, *capturedEvents) {
	t.Helper()

	events := &capturedEvents{}
	h, err := NewHandler(slog.New(slog.DiscardHandler), NewMemoryStore(), events, 1<<20)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	return mux, events
}

func asUser(req *http.Request, id int64) *http.Request {
	return req.WithContext(authapi.WithUser(req.Context(), identity.User{ID: id, Username: "staff", Active: true}))
}

func TestHandler_MarkAndConflict(t *testing.T) {
	mux, events := newTestMux(t)

	body := `{"student_id":1,"date":"2026-08-31"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(body)), 7)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("mark: status %d body %s", rec.Code, rec.Body.String())
	}

	var resp markResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MarkedBy != 7 || resp.Date != "2026-08-31" {
		t.Fatalf("resp = %+v", resp)
	}

	if len(events.events) != 1 || events.events[0].Action != "marked" {
		t.Fatalf("events = %+v", events.events)
	}

	req = asUser(httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(body)), 7)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double mark: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already_marked") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHandler_MarkRejectsBadInput(t *testing.T) {
	mux, _ := newTestMux(t)

	for name, body := range map[string]string{
		"missing student": `{"date":"2026-08-31"}`,
		"bad date":        `{"student_id":1,"date":"31/08/2026"}`,
		"not json":        `x`,
	} {
		t.Run(name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(body)), 7)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}
}

func TestHandler_MarkRequiresUser(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(`{"student_id":1,"date":"2026-08-31"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandler_UnmarkAndQuery(t *testing.T) {
	mux, events := newTestMux(t)

	for _, body := range []string{
		`{"student_id":1,"date":"2026-08-30"}`,
		`{"student_id":1,"date":"2026-08-31"}`,
		`{"student_id":2,"date":"2026-08-31"}`,
	} {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(body)), 7)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("mark: status %d", rec.Code)
		}
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/attendance?student_id=1", nil), 7)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query by student: status %d", rec.Code)
	}
	var listed markListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Attendance) != 2 {
		t.Fatalf("by student = %+v", listed)
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/v1/attendance?from=2026-08-31&to=2026-08-31", nil), 7)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Attendance) != 2 {
		t.Fatalf("by range = %+v", listed)
	}

	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/attendance?student_id=1&date=2026-08-31", nil), 7)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unmark: status %d", rec.Code)
	}
	last := events.events[len(events.events)-1]
	if last.Action != "unmarked" || last.StudentID != 1 {
		t.Fatalf("last event = %+v", last)
	}

	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/attendance?student_id=1&date=2026-08-31", nil), 7)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double unmark: status %d", rec.Code)
	}
}
