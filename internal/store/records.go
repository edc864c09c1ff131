package store

// Collection names in the record store file.
const (
	CollectionAppointments  = "appointments"
	CollectionPrescriptions = "prescriptions"
	CollectionFitnessPlans  = "fitness_plans"
	CollectionMealPlans     = "meal_plans"
)

// Collections lists all known collection names in persisted order.
func Collections() []string {
	return []string{
		CollectionAppointments,
		CollectionPrescriptions,
		CollectionFitnessPlans,
		CollectionMealPlans,
	}
}

// StatusScheduled is the default status assigned to new appointments.
const StatusScheduled = "scheduled"

// Appointment is a scheduled visit between a patient and a doctor.
type Appointment struct {
	ID          int64  `json:"id"`
	PatientName string `json:"patientName"`
	DoctorName  string `json:"doctorName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason,omitempty"`
	Status      string `json:"status"`
}

// Prescription is a medication order for a patient.
type Prescription struct {
	ID          int64  `json:"id"`
	PatientName string `json:"patientName"`
	Medication  string `json:"medication"`
	Dosage      string `json:"dosage"`
	Frequency   string `json:"frequency"`
	Duration    string `json:"duration,omitempty"`
	Date        string `json:"date"`
	Notes       string `json:"notes,omitempty"`
}

// FitnessPlan is a workout program for a patient.
type FitnessPlan struct {
	ID            int64  `json:"id"`
	PatientName   string `json:"patientName"`
	Goal          string `json:"goal"`
	DurationWeeks int    `json:"durationWeeks,omitempty"`
	Workouts      string `json:"workouts"`
	Notes         string `json:"notes,omitempty"`
	CreatedDate   string `json:"createdDate"`
}

// MealPlan is a nutrition program for a patient.
type MealPlan struct {
	ID            int64  `json:"id"`
	PatientName   string `json:"patientName"`
	Goal          string `json:"goal"`
	DailyCalories int    `json:"dailyCalories,omitempty"`
	Meals         string `json:"meals"`
	Notes         string `json:"notes,omitempty"`
	CreatedDate   string `json:"createdDate"`
}
