package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fastlog/internal/logger"
	"fastlog/pkg/fastlog"
)

// maxBodyBytes caps request bodies; a FastLog is a few hundred bytes at most.
const maxBodyBytes = 1 << 20

func (s *Server) handleFastLogList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		logs []fastlog.FastLog
		err  error
	)
	switch {
	case q.Get("fastType") != "":
		var t fastlog.FastType
		t, err = fastlog.ParseFastType(q.Get("fastType"))
		if err == nil {
			logs, err = s.logs.ByFastType(ctx, t)
		}
	case q.Get("completed") != "":
		var done bool
		done, err = strconv.ParseBool(q.Get("completed"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed must be true or false")
			return
		}
		logs, err = s.logs.ByCompleted(ctx, done)
	case q.Get("from") != "" || q.Get("to") != "":
		var from, to fastlog.Date
		from, to, err = dateRange(q.Get("from"), q.Get("to"))
		if err == nil {
			logs, err = s.logs.Between(ctx, from, to)
		}
	default:
		logs, err = s.logs.All(ctx)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleFastLogGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	f, err := s.logs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleFastLogCreate(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFastLog(w, r)
	if !ok {
		return
	}
	created, err := s.logs.Create(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleFastLogUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	f, ok := decodeFastLog(w, r)
	if !ok {
		return
	}
	updated, err := s.logs.Update(r.Context(), id, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleFastLogComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	f, err := s.logs.MarkCompleted(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleFastLogDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	deleted, err := s.logs.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} segment. Anything but a positive integer names no record.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeFastLog reads and validates the request body, answering 400 itself on failure.
func decodeFastLog(w http.ResponseWriter, r *http.Request) (*fastlog.FastLog, bool) {
	var in fastlog.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	f, err := in.Validate()
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return f, true
}

func dateRange(from, to string) (fastlog.Date, fastlog.Date, error) {
	if from == "" || to == "" {
		return fastlog.Date{}, fastlog.Date{}, &fastlog.ValidationError{Fields: map[string]string{"from": "from and to are both required"}}
	}
	start, err := fastlog.ParseDate(from)
	if err != nil {
		return fastlog.Date{}, fastlog.Date{}, &fastlog.ValidationError{Fields: map[string]string{"from": "must be YYYY-MM-DD"}}
	}
	end, err := fastlog.ParseDate(to)
	if err != nil {
		return fastlog.Date{}, fastlog.Date{}, &fastlog.ValidationError{Fields: map[string]string{"to": "must be YYYY-MM-DD"}}
	}
	return start, end, nil
}

// notFound answers 404 with an empty body.
func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
}

// writeServiceError maps a service error to a status. Store failures are
// logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *fastlog.ValidationError
	switch {
	case errors.Is(err, fastlog.ErrNotFound):
		notFound(w)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
	default:
		logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
