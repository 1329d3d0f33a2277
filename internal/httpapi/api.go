package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneDeliveryScheduler/internal/auth"
	"droneDeliveryScheduler/internal/metrics"
	"droneDeliveryScheduler/internal/schedule"
	"droneDeliveryScheduler/models"
)

// API is the HTTP face of the scheduler.
type API struct {
	sched   *schedule.Scheduler
	secret  string
	metrics *metrics.Collector
	logger  zerolog.Logger
}

func New(sched *schedule.Scheduler, jwtSecret string, m *metrics.Collector, logger zerolog.Logger) *API {
	return &API{sched: sched, secret: jwtSecret, metrics: m, logger: logger}
}

// Routes builds the router. /healthz and /metrics are public; /v1 requires a Bearer JWT.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(a.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", d).
			Msg("http")
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.authenticate)
		r.Post("/deliveries", a.handleSchedule)
		r.Get("/deliveries/next", a.handleNext)
		r.Get("/drones/{id}/planning", a.handlePlanning)
	})
	return r
}

func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.ParseBearer(r.Header.Get("Authorization"), a.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

type scheduleRequest struct {
	DeliveryID string    `json:"delivery_id"`
	At         time.Time `json:"at"`
}

type deliveryResponse struct {
	DeliveryID string `json:"delivery_id"`
	DroneID    string `json:"drone_id"`
}

func (a *API) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireDispatcher(r.Context()); err != nil {
		writeAuthError(w, err)
		return
	}
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.DeliveryID = strings.TrimSpace(req.DeliveryID)
	if req.DeliveryID == "" || req.At.IsZero() {
		writeError(w, http.StatusBadRequest, "delivery_id and at are required")
		return
	}

	d := &models.Delivery{ID: req.DeliveryID}
	if _, err := a.sched.ScheduleDelivery(r.Context(), req.At, d); err != nil {
		a.writeScheduleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deliveryResponse{DeliveryID: d.ID, DroneID: *d.DroneID})
}

// handleNext answers 204 when nothing is scheduled after the instant. "after" defaults to now.
func (a *API) handleNext(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireKind(r.Context(), auth.KindDrone, auth.KindDispatcher, auth.KindAdmin); err != nil {
		writeAuthError(w, err)
		return
	}
	after := time.Now()
	if v := r.URL.Query().Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be RFC3339")
			return
		}
		after = t
	}

	d, err := a.sched.NextDelivery(r.Context(), after)
	if err != nil {
		a.writeScheduleError(w, r, err)
		return
	}
	if d == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	resp := deliveryResponse{DeliveryID: d.ID}
	if d.DroneID != nil {
		resp.DroneID = *d.DroneID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePlanning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := auth.RequireDroneOrStaff(r.Context(), id); err != nil {
		writeAuthError(w, err)
		return
	}
	plan, err := a.sched.CurrentPlanning(r.Context(), id)
	if err != nil {
		a.writeScheduleError(w, r, err)
		return
	}
	g, today := a.sched.Grid(), a.sched.Now()
	slots := make([]planningSlot, len(plan))
	for i, st := range plan {
		at := g.TimestampOf(i, today)
		slots[i] = planningSlot{At: at, Time: at.Format("15:04"), State: st}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drone_id": id, "slots": slots})
}

type planningSlot struct {
	At    time.Time    `json:"at"`
	Time  string       `json:"time"`
	State models.State `json:"state"`
}

var kindStatus = map[schedule.Kind]int{
	schedule.KindZeroDronesInFleet:        http.StatusConflict,
	schedule.KindNoFreeDroneAtTimeSlot:    http.StatusConflict,
	schedule.KindOutsideOperatingHours:    http.StatusUnprocessableEntity,
	schedule.KindTimeslotUnavailable:      http.StatusConflict,
	schedule.KindDroneNotFound:            http.StatusNotFound,
	schedule.KindDeliveryAlreadyScheduled: http.StatusConflict,
	schedule.KindDroneAlreadyRegistered:   http.StatusConflict,
}

// writeScheduleError reports the error kind in the body so clients can tell 409s apart.
func (a *API) writeScheduleError(w http.ResponseWriter, r *http.Request, err error) {
	k := schedule.KindOf(err)
	code, ok := kindStatus[k]
	if !ok {
		hlog.FromRequest(r).Error().Err(err).Msg("schedule request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, code, map[string]string{"error": k.String(), "message": err.Error()})
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch status.Code(err) {
	case codes.Unauthenticated:
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	default:
		writeError(w, http.StatusForbidden, "forbidden")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
