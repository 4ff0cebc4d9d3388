package attendance

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	authapi "rollcall/cmd/internal/auth/api"
)

// Event is broadcast to live feed subscribers when a mark changes.
type Event struct {
	Action    string `json:"action"`
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	MarkedBy  int64  `json:"marked_by"`
}

// Publisher fans an event out to connected clients. Implementations must
// not block.
type Publisher interface {
	Publish(ev Event)
}

// Handler exposes attendance marking over HTTP. Authentication is
// enforced by the surrounding router.
type Handler struct {
	log          *slog.Logger
	store        Store
	publish      Publisher
	maxBodyBytes int64
}

// NewHandler constructs an attendance Handler. publish may be nil.
func NewHandler(log *slog.Logger, store Store, publish Publisher, maxBodyBytes int64) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("attendance: nil store")
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{log: log, store: store, publish: publish, maxBodyBytes: maxBodyBytes}, nil
}

// Register wires attendance routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/v1/attendance", h.handleAttendance)
}

type markRequest struct {
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
}

type markResponse struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	MarkedBy  int64  `json:"marked_by"`
}

type markListResponse struct {
	Attendance []markResponse `json:"attendance"`
}

func toResponse(rec Record) markResponse {
	return markResponse{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		Date:      rec.Date.Format(time.DateOnly),
		MarkedBy:  rec.MarkedBy,
	}
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleMark(w, r)
	case http.MethodDelete:
		h.handleUnmark(w, r)
	case http.MethodGet:
		h.handleQuery(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	user, ok := authapi.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	var req markRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.StudentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "student_id is required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	rec, err := h.store.Mark(r.Context(), MarkInput{
		StudentID: req.StudentID,
		Date:      date,
		MarkedBy:  user.ID,
		Now:       time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyMarked):
			writeError(w, http.StatusConflict, "already_marked", "attendance already marked for that date")
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "student not found")
		default:
			h.log.Error("attendance.mark.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	marksTotal.WithLabelValues("marked").Inc()
	h.log.Info("attendance.mark.ok", "student_id", rec.StudentID, "date", rec.Date.Format(time.DateOnly), "by", user.ID)
	h.announce(Event{Action: "marked", StudentID: rec.StudentID, Date: rec.Date.Format(time.DateOnly), MarkedBy: user.ID})

	writeJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) handleUnmark(w http.ResponseWriter, r *http.Request) {
	user, ok := authapi.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	q := r.URL.Query()
	studentID, err := strconv.ParseInt(q.Get("student_id"), 10, 64)
	if err != nil || studentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "student_id is required")
		return
	}
	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	if err := h.store.Unmark(r.Context(), studentID, date); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "attendance record not found")
			return
		}
		h.log.Error("attendance.unmark.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	marksTotal.WithLabelValues("unmarked").Inc()
	h.announce(Event{Action: "unmarked", StudentID: studentID, Date: date.Format(time.DateOnly), MarkedBy: user.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		recs []Record
		err  error
	)
	switch {
	case q.Get("student_id") != "":
		var studentID int64
		studentID, err = strconv.ParseInt(q.Get("student_id"), 10, 64)
		if err != nil || studentID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid student_id")
			return
		}
		recs, err = h.store.ListByStudent(r.Context(), studentID)

	case q.Get("from") != "" && q.Get("to") != "":
		var from, to time.Time
		from, err = parseDate(q.Get("from"))
		if err == nil {
			to, err = parseDate(q.Get("to"))
		}
		if err != nil || to.Before(from) {
			writeError(w, http.StatusBadRequest, "invalid_request", "from/to must be YYYY-MM-DD with from <= to")
			return
		}
		recs, err = h.store.ListByDateRange(r.Context(), from, to)

	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "student_id or from/to is required")
		return
	}
	if err != nil {
		h.log.Error("attendance.query.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := make([]markResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toResponse(rec))
	}
	writeJSON(w, http.StatusOK, markListResponse{Attendance: out})
}

func (h *Handler) announce(ev Event) {
	if h.publish != nil {
		h.publish.Publish(ev)
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(time.DateOnly, raw)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
