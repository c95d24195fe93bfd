package endpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glubapi",
		Name:      "endpoint_requests_total",
		Help:      "Endpoint requests by route and status code.",
	}, []string{"route", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "glubapi",
		Name:      "endpoint_request_duration_seconds",
		Help:      "Time spent resolving and encoding endpoint responses.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

const RequestIDHeader = "X-Request-ID"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type Handler struct {
	res   *Resolver
	log   *slog.Logger
	debug bool
}

func NewHandler(res *Resolver, log *slog.Logger, debug bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{res: res, log: log, debug: debug}
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := requestID(r)
	w.Header().Set(RequestIDHeader, id)

	route := h.res.Match(r.URL.Path)
	label := route
	if label == "" {
		label = "none"
	}
	logger := h.log.With("request_id", id, "path", r.URL.Path, "route", label)

	code := h.serve(w, r, logger)

	requestsTotal.WithLabelValues(label, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	logger.Debug("served", "code", code, "duration", time.Since(start))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, logger *slog.Logger) int {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		return h.httpError(w, r, http.StatusMethodNotAllowed, errors.Errorf("method %s", r.Method), logger)
	}

	resp, err := h.res.Resolve(r.Context(), r.URL.Path, r.URL.Query())
	switch cause := errors.Cause(err); {
	case err == nil:
	case cause == ErrNotFound:
		return h.httpError(w, r, http.StatusNotFound, err, logger)
	case cause == ErrBadRequest:
		return h.httpError(w, r, http.StatusBadRequest, err, logger)
	default:
		return h.httpError(w, r, http.StatusInternalServerError, err, logger)
	}

	// encode completely before writing so a failure never leaves a
	// truncated document behind
	b, err := json.Marshal(resp.Body)
	if err != nil {
		return h.httpError(w, r, http.StatusInternalServerError,
			errors.Wrapf(err, "encoding response of %q", resp.Route), logger)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(b)
	}
	return http.StatusOK
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *Handler) httpError(w http.ResponseWriter, r *http.Request, code int, logErr error, logger *slog.Logger) int {
	level := slog.LevelInfo
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed", "code", code, "error", logErr)
	if h.debug {
		var st stackTracer
		if errors.As(logErr, &st) {
			logger.Debug("stack trace", "trace", fmt.Sprintf("%+v", st.StackTrace()))
		}
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = http.StatusText(code)
	b, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write(b)
	return code
}
