package students

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rollcall/cmd/security/fieldcrypt"
)

// Handler exposes roster CRUD over HTTP. Authentication is enforced by
// the surrounding router; every route here assumes an authenticated
// caller.
type Handler struct {
	log          *slog.Logger
	svc          *Service
	maxBodyBytes int64
}

// NewHandler constructs a roster Handler.
func NewHandler(log *slog.Logger, svc *Service, maxBodyBytes int64) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("students: nil service")
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{log: log, svc: svc, maxBodyBytes: maxBodyBytes}, nil
}

// Register wires roster routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/v1/students", h.handleCollection)
	mux.HandleFunc("/api/v1/students/", h.handleByID)
}

type studentRequest struct {
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	Level         string  `json:"level"`
	PricePerClass float64 `json:"price_per_class"`
}

type studentResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Level         string    `json:"level,omitempty"`
	PricePerClass float64   `json:"price_per_class"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type studentListResponse struct {
	Students []studentResponse `json:"students"`
}

func toResponse(st Student) studentResponse {
	return studentResponse{
		ID:            st.ID,
		Name:          st.Name,
		Age:           st.Age,
		Level:         st.Level,
		PricePerClass: st.PricePerClass,
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	}
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, "students.list.fail", err)
		return
	}
	out := make([]studentResponse, 0, len(list))
	for _, st := range list {
		out = append(out, toResponse(st))
	}
	writeJSON(w, http.StatusOK, studentListResponse{Students: out})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	st, err := h.svc.Create(r.Context(), time.Now().UTC(), StudentInput(req))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.fail(w, "students.create.fail", err)
		return
	}

	h.log.Info("students.create.ok", "student_id", st.ID)
	writeJSON(w, http.StatusCreated, toResponse(st))
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request) {
	idRaw := strings.TrimPrefix(r.URL.Path, "/api/v1/students/")
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid student id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		st, err := h.svc.Get(r.Context(), id)
		if err != nil {
			h.failLookup(w, "students.get.fail", err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(st))

	case http.MethodPut:
		var req studentRequest
		if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
		st, err := h.svc.Update(r.Context(), time.Now().UTC(), id, StudentInput(req))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
			h.failLookup(w, "students.update.fail", err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(st))

	case http.MethodDelete:
		if err := h.svc.Delete(r.Context(), id); err != nil {
			h.failLookup(w, "students.delete.fail", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) failLookup(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "student not found")
		return
	}
	h.fail(w, event, err)
}

func (h *Handler) fail(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, fieldcrypt.ErrDecrypt) {
		// Wrong or rotated age key. Do not leak which row failed.
		h.log.Error(event, "err", err)
		writeError(w, http.StatusInternalServerError, "decryption_error", "stored record could not be decrypted")
		return
	}
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
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
