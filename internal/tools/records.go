package tools

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/store"
)

// RecordAppender is the slice of the record store the tools need.
type RecordAppender interface {
	Append(collection string, record store.Record) (int64, error)
}

// CreateAppointmentInput defines input for the createAppointment tool.
type CreateAppointmentInput struct {
	PatientName string `json:"patientName" jsonschema_description:"Full name of the patient"`
	DoctorName  string `json:"doctorName" jsonschema_description:"Name of the doctor for the appointment"`
	Date        string `json:"date" jsonschema_description:"Appointment date in YYYY-MM-DD format"`
	Time        string `json:"time" jsonschema_description:"Appointment time, e.g. 14:30"`
	Reason      string `json:"reason,omitempty" jsonschema_description:"Reason for the visit"`
	Status      string `json:"status,omitempty" jsonschema_description:"Appointment status, defaults to scheduled"`
}

// CreatePrescriptionInput defines input for the createPrescription tool.
type CreatePrescriptionInput struct {
	PatientName string `json:"patientName" jsonschema_description:"Full name of the patient"`
	Medication  string `json:"medication" jsonschema_description:"Name of the prescribed medication"`
	Dosage      string `json:"dosage" jsonschema_description:"Dosage, e.g. 500mg"`
	Frequency   string `json:"frequency" jsonschema_description:"How often to take it, e.g. twice daily"`
	Duration    string `json:"duration,omitempty" jsonschema_description:"Treatment duration, e.g. 10 days"`
	Date        string `json:"date,omitempty" jsonschema_description:"Prescription date in YYYY-MM-DD format, defaults to today"`
	Notes       string `json:"notes,omitempty" jsonschema_description:"Additional instructions"`
}

// CreateFitnessPlanInput defines input for the createFitnessPlan tool.
type CreateFitnessPlanInput struct {
	PatientName   string `json:"patientName" jsonschema_description:"Full name of the patient"`
	Goal          string `json:"goal" jsonschema_description:"Fitness goal, e.g. weight loss or muscle gain"`
	DurationWeeks int    `json:"durationWeeks,omitempty" jsonschema_description:"Plan duration in weeks"`
	Workouts      string `json:"workouts" jsonschema_description:"Workout schedule description"`
	Notes         string `json:"notes,omitempty" jsonschema_description:"Additional notes"`
}

// CreateMealPlanInput defines input for the createMealPlan tool.
type CreateMealPlanInput struct {
	PatientName   string `json:"patientName" jsonschema_description:"Full name of the patient"`
	Goal          string `json:"goal" jsonschema_description:"Nutrition goal, e.g. weight loss or bulking"`
	DailyCalories int    `json:"dailyCalories,omitempty" jsonschema_description:"Target daily calorie intake"`
	Meals         string `json:"meals" jsonschema_description:"Meal schedule description"`
	Notes         string `json:"notes,omitempty" jsonschema_description:"Additional notes"`
}

// registerRecordTools wires the four record-creation tools.
func registerRecordTools(g *genkit.Genkit, r *Registry, st RecordAppender) {
	register(g, r, NameCreateAppointment,
		"Schedule a medical appointment for a patient with a doctor.",
		func(_ context.Context, in CreateAppointmentInput) Outcome {
			if in.Status == "" {
				in.Status = store.StatusScheduled
			}
			if in.Date == "" {
				in.Date = today()
			}
			return appendRecord(st, r.logger, store.CollectionAppointments, store.Record{
				"patientName": in.PatientName,
				"doctorName":  in.DoctorName,
				"date":        in.Date,
				"time":        in.Time,
				"reason":      in.Reason,
				"status":      in.Status,
			}, "Appointment scheduled for "+in.PatientName)
		})

	register(g, r, NameCreatePrescription,
		"Record a medication prescription for a patient.",
		func(_ context.Context, in CreatePrescriptionInput) Outcome {
			if in.Date == "" {
				in.Date = today()
			}
			return appendRecord(st, r.logger, store.CollectionPrescriptions, store.Record{
				"patientName": in.PatientName,
				"medication":  in.Medication,
				"dosage":      in.Dosage,
				"frequency":   in.Frequency,
				"duration":    in.Duration,
				"date":        in.Date,
				"notes":       in.Notes,
			}, "Prescription recorded for "+in.PatientName)
		})

	register(g, r, NameCreateFitnessPlan,
		"Create a fitness plan with workouts for a patient.",
		func(_ context.Context, in CreateFitnessPlanInput) Outcome {
			return appendRecord(st, r.logger, store.CollectionFitnessPlans, store.Record{
				"patientName":   in.PatientName,
				"goal":          in.Goal,
				"durationWeeks": in.DurationWeeks,
				"workouts":      in.Workouts,
				"notes":         in.Notes,
				"createdDate":   today(),
			}, "Fitness plan created for "+in.PatientName)
		})

	register(g, r, NameCreateMealPlan,
		"Create a meal plan with nutrition targets for a patient.",
		func(_ context.Context, in CreateMealPlanInput) Outcome {
			return appendRecord(st, r.logger, store.CollectionMealPlans, store.Record{
				"patientName":   in.PatientName,
				"goal":          in.Goal,
				"dailyCalories": in.DailyCalories,
				"meals":         in.Meals,
				"notes":         in.Notes,
				"createdDate":   today(),
			}, "Meal plan created for "+in.PatientName)
		})
}

// appendRecord persists a record and shapes the Outcome the model sees.
func appendRecord(st RecordAppender, logger log.Logger, collection string, record store.Record, message string) Outcome {
	id, err := st.Append(collection, record)
	if err != nil {
		logger.Error("tool record append failed", "collection", collection, "error", err)
		return Outcome{Success: false, Error: err.Error()}
	}
	record["id"] = id
	return Outcome{
		Success: true,
		Data:    record,
		Message: message,
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}
