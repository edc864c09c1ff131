package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/planner"
	"github.com/vitaldesk/vitaldesk/internal/store"
)

// RecordsHandler serves CRUD endpoints for the record collections.
type RecordsHandler struct {
	store  *store.Store
	logger log.Logger
}

// NewRecordsHandler creates a records handler.
func NewRecordsHandler(st *store.Store, logger log.Logger) *RecordsHandler {
	return &RecordsHandler{store: st, logger: logger}
}

// recordRoute binds a URL segment to a collection and its validator.
type recordRoute struct {
	path       string
	collection string
	decode     func(*http.Request) (store.Record, error)
}

func (h *RecordsHandler) routes() []recordRoute {
	return []recordRoute{
		{"appointments", store.CollectionAppointments, decodeAppointment},
		{"prescriptions", store.CollectionPrescriptions, decodePrescription},
		{"fitness_plans", store.CollectionFitnessPlans, decodeFitnessPlan},
		{"meal_plans", store.CollectionMealPlans, decodeMealPlan},
	}
}

// RegisterRoutes registers record CRUD endpoints on the mux. Route
// segments match the collection names so clients address both the API
// and the store with one spelling.
func (h *RecordsHandler) RegisterRoutes(mux *http.ServeMux) {
	for _, rt := range h.routes() {
		mux.HandleFunc("GET /api/"+rt.path, h.handleList(rt))
		mux.HandleFunc("POST /api/"+rt.path, h.handleCreate(rt))
		mux.HandleFunc("DELETE /api/"+rt.path+"/{id}", h.handleDelete(rt))
	}
	mux.HandleFunc("POST /api/fitness_plans/generate", h.handleGeneratePlan)
}

func (h *RecordsHandler) handleList(rt recordRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		records, err := h.store.List(rt.collection)
		if err != nil {
			h.logger.Error("listing records failed", "collection", rt.collection, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list records", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (h *RecordsHandler) handleCreate(rt recordRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := rt.decode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}

		id, err := h.store.Append(rt.collection, record)
		if err != nil {
			h.logger.Error("creating record failed", "collection", rt.collection, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create record", err.Error())
			return
		}
		record["id"] = id
		writeJSON(w, http.StatusCreated, record)
	}
}

func (h *RecordsHandler) handleDelete(rt recordRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid record id", r.PathValue("id"))
			return
		}

		switch err := h.store.DeleteByID(rt.collection, id); {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "record not found", "")
		case err != nil:
			h.logger.Error("deleting record failed", "collection", rt.collection, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete record", err.Error())
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// handleGeneratePlan builds a rule-based personalized fitness plan from
// onboarding responses and persists it alongside manually created plans.
func (h *RecordsHandler) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req planner.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Onboarding.FitnessGoal == "" || req.Onboarding.PlanDuration == "" {
		writeError(w, http.StatusBadRequest, "invalid request body",
			"fitness_goal and plan_duration are required")
		return
	}

	plan := planner.Generate(req)
	record, err := planRecord(plan)
	if err != nil {
		h.logger.Error("encoding generated plan failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate fitness plan", err.Error())
		return
	}

	id, err := h.store.Append(store.CollectionFitnessPlans, record)
	if err != nil {
		h.logger.Error("saving generated plan failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate fitness plan", err.Error())
		return
	}
	record["id"] = id
	writeJSON(w, http.StatusCreated, record)
}

// planRecord flattens a generated plan into the store's record shape.
func planRecord(p planner.Plan) (store.Record, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var rec store.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeAppointment(r *http.Request) (store.Record, error) {
	var in store.Appointment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return nil, err
	}
	if err := requireFields(map[string]string{
		"patientName": in.PatientName,
		"doctorName":  in.DoctorName,
		"date":        in.Date,
		"time":        in.Time,
	}); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = store.StatusScheduled
	}
	return store.Record{
		"patientName": in.PatientName,
		"doctorName":  in.DoctorName,
		"date":        in.Date,
		"time":        in.Time,
		"reason":      in.Reason,
		"status":      in.Status,
	}, nil
}

func decodePrescription(r *http.Request) (store.Record, error) {
	var in store.Prescription
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return nil, err
	}
	if err := requireFields(map[string]string{
		"patientName": in.PatientName,
		"medication":  in.Medication,
		"dosage":      in.Dosage,
		"frequency":   in.Frequency,
	}); err != nil {
		return nil, err
	}
	if in.Date == "" {
		in.Date = time.Now().Format("2006-01-02")
	}
	return store.Record{
		"patientName": in.PatientName,
		"medication":  in.Medication,
		"dosage":      in.Dosage,
		"frequency":   in.Frequency,
		"duration":    in.Duration,
		"date":        in.Date,
		"notes":       in.Notes,
	}, nil
}

func decodeFitnessPlan(r *http.Request) (store.Record, error) {
	var in store.FitnessPlan
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return nil, err
	}
	if err := requireFields(map[string]string{
		"patientName": in.PatientName,
		"goal":        in.Goal,
		"workouts":    in.Workouts,
	}); err != nil {
		return nil, err
	}
	if in.CreatedDate == "" {
		in.CreatedDate = time.Now().Format("2006-01-02")
	}
	return store.Record{
		"patientName":   in.PatientName,
		"goal":          in.Goal,
		"durationWeeks": in.DurationWeeks,
		"workouts":      in.Workouts,
		"notes":         in.Notes,
		"createdDate":   in.CreatedDate,
	}, nil
}

func decodeMealPlan(r *http.Request) (store.Record, error) {
	var in store.MealPlan
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return nil, err
	}
	if err := requireFields(map[string]string{
		"patientName": in.PatientName,
		"goal":        in.Goal,
		"meals":       in.Meals,
	}); err != nil {
		return nil, err
	}
	if in.CreatedDate == "" {
		in.CreatedDate = time.Now().Format("2006-01-02")
	}
	return store.Record{
		"patientName":   in.PatientName,
		"goal":          in.Goal,
		"dailyCalories": in.DailyCalories,
		"meals":         in.Meals,
		"notes":         in.Notes,
		"createdDate":   in.CreatedDate,
	}, nil
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}
