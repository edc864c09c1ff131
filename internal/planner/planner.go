// Package planner generates rule-based personalized fitness plans from
// onboarding questionnaire answers. No model call is involved; plans
// come from goal and experience templates with avoided-activity
// filtering.
package planner

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Request is the POST /api/fitness_plans/generate body.
type Request struct {
	UserDetails UserDetails `json:"userDetails"`
	Onboarding  Onboarding  `json:"onboardingResponses"`
}

// UserDetails identifies who the plan is for.
type UserDetails struct {
	Name string `json:"name"`
}

// Onboarding holds the questionnaire answers the generator works from.
type Onboarding struct {
	FitnessGoal         string   `json:"fitness_goal"`
	PlanDuration        string   `json:"plan_duration"`
	PreferredActivities []string `json:"preferred_activities"`
	AvoidedActivities   []string `json:"avoided_activities"`
	HealthConditions    string   `json:"health_conditions"`
	ExperienceLevel     string   `json:"experience_level"`
}

// Plan is a generated fitness plan, persisted as-is to the record store.
type Plan struct {
	PlanName             string    `json:"plan_name"`
	Goal                 string    `json:"goal"`
	Duration             string    `json:"duration"`
	ExperienceLevel      string    `json:"experience_level"`
	HealthConsiderations string    `json:"health_considerations"`
	CreatedFor           string    `json:"created_for"`
	CreatedAt            string    `json:"created_at"`
	Workouts             []Workout `json:"workouts"`
	Recommendations      []string  `json:"recommendations"`
}

// Workout is one scheduled session within a plan.
type Workout struct {
	Week      int        `json:"week"`
	Day       int        `json:"day"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	Duration  string     `json:"duration"`
	Intensity string     `json:"intensity"`
}

// Exercise is a single movement with its prescription.
type Exercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps string `json:"reps"`
	Rest string `json:"rest"`
}

// Exercise pools per fitness goal. Unknown goals fall back to
// general_fitness.
var workoutTemplates = map[string][]string{
	"weight_loss": {
		"Running", "Cycling", "Swimming", "Rowing",
		"Bodyweight Squats", "Push-ups", "Planks", "Lunges",
		"Burpees", "Mountain Climbers", "Jump Squats", "High Knees",
	},
	"muscle_gain": {
		"Bench Press", "Squats", "Deadlifts", "Pull-ups",
		"Dumbbell Rows", "Shoulder Press", "Leg Press", "Bicep Curls",
		"Lateral Raises", "Tricep Dips", "Calf Raises", "Core Work",
	},
	"endurance": {
		"Long Distance Running", "Cycling", "Swimming", "Rowing",
		"Sprint Intervals", "Hill Training", "Tempo Runs", "Fartlek Training",
	},
	"flexibility": {
		"Static Stretches", "Dynamic Stretches", "Yoga Poses", "Mobility Work",
		"Sun Salutations", "Warrior Poses", "Balance Poses", "Restorative Poses",
	},
	"general_fitness": {
		"Circuit Training", "Functional Movements", "Bodyweight Exercises", "Light Cardio",
	},
}

// Exercises excluded per avoided-activity category.
var avoidedExercises = map[string][]string{
	"high_impact":       {"Running", "Jump Squats", "Burpees", "High Knees"},
	"heavy_lifting":     {"Bench Press", "Deadlifts", "Squats"},
	"complex_movements": {"Deadlifts", "Pull-ups", "Burpees"},
}

// levelParams are the per-experience training parameters.
type levelParams struct {
	exerciseCount int
	sets          int
	reps          string
	rest          string
	duration      string
	intensity     string
}

func paramsFor(experience string) levelParams {
	switch experience {
	case "beginner":
		return levelParams{4, 2, "8-12", "90 seconds", "30-45 minutes", "Low to Moderate"}
	case "intermediate":
		return levelParams{6, 3, "10-15", "60 seconds", "45-60 minutes", "Moderate"}
	default:
		return levelParams{8, 4, "12-20", "45 seconds", "60-75 minutes", "Moderate to High"}
	}
}

// Generate builds a personalized plan from the onboarding answers.
func Generate(req Request) Plan {
	ob := req.Onboarding
	return Plan{
		PlanName:             planName(ob.FitnessGoal, ob.PlanDuration),
		Goal:                 ob.FitnessGoal,
		Duration:             ob.PlanDuration,
		ExperienceLevel:      ob.ExperienceLevel,
		HealthConsiderations: ob.HealthConditions,
		CreatedFor:           req.UserDetails.Name,
		CreatedAt:            time.Now().UTC().Format(time.RFC3339),
		Workouts:             generateWorkouts(ob),
		Recommendations:      generateRecommendations(ob),
	}
}

func planName(goal, duration string) string {
	up := func(s string) string {
		return strings.ToUpper(strings.ReplaceAll(s, "_", " "))
	}
	return fmt.Sprintf("%s - %s PLAN", up(goal), up(duration))
}

func weeks(duration string) int {
	switch duration {
	case "1_week":
		return 1
	case "2_weeks":
		return 2
	default:
		return 4
	}
}

func daysPerWeek(duration string) int {
	switch duration {
	case "1_week":
		return 3
	case "2_weeks":
		return 4
	default:
		return 5
	}
}

func generateWorkouts(ob Onboarding) []Workout {
	params := paramsFor(ob.ExperienceLevel)
	pool := workoutTemplates[ob.FitnessGoal]
	if pool == nil {
		pool = workoutTemplates["general_fitness"]
	}
	pool = filterAvoided(pool, ob.AvoidedActivities)

	var workouts []Workout
	for week := 1; week <= weeks(ob.PlanDuration); week++ {
		for day := 1; day <= daysPerWeek(ob.PlanDuration); day++ {
			workouts = append(workouts, Workout{
				Week:      week,
				Day:       day,
				Name:      fmt.Sprintf("%s - Day %d", strings.ToUpper(strings.ReplaceAll(ob.FitnessGoal, "_", " ")), day),
				Exercises: pickExercises(pool, params),
				Duration:  params.duration,
				Intensity: params.intensity,
			})
		}
	}
	return workouts
}

func filterAvoided(pool []string, avoided []string) []string {
	if len(avoided) == 0 {
		return pool
	}

	excluded := make(map[string]bool)
	for _, category := range avoided {
		for _, name := range avoidedExercises[category] {
			excluded[name] = true
		}
	}

	out := make([]string, 0, len(pool))
	for _, name := range pool {
		if !excluded[name] {
			out = append(out, name)
		}
	}
	return out
}

// pickExercises samples without replacement from the pool.
func pickExercises(pool []string, params levelParams) []Exercise {
	remaining := make([]string, len(pool))
	copy(remaining, pool)

	count := min(params.exerciseCount, len(remaining))
	exercises := make([]Exercise, 0, count)
	for range count {
		i := rand.IntN(len(remaining))
		exercises = append(exercises, Exercise{
			Name: remaining[i],
			Sets: params.sets,
			Reps: params.reps,
			Rest: params.rest,
		})
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	return exercises
}

func generateRecommendations(ob Onboarding) []string {
	var recs []string

	switch ob.FitnessGoal {
	case "weight_loss":
		recs = append(recs,
			"Focus on creating a caloric deficit through diet and exercise",
			"Include both cardio and strength training for optimal results",
			"Aim for 150-300 minutes of moderate activity per week")
	case "muscle_gain":
		recs = append(recs,
			"Ensure adequate protein intake (1.6-2.2g per kg body weight)",
			"Progressive overload is key - gradually increase weight or reps",
			"Allow 48-72 hours rest between training the same muscle group")
	case "endurance":
		recs = append(recs,
			"Gradually increase duration and intensity of cardio sessions",
			"Include both steady-state and interval training",
			"Focus on proper breathing techniques during exercise")
	}

	switch ob.ExperienceLevel {
	case "beginner":
		recs = append(recs,
			"Start slowly and focus on proper form",
			"Listen to your body and don't push through pain",
			"Consider working with a trainer for initial guidance")
	case "intermediate":
		recs = append(recs,
			"Vary your routine to prevent plateaus",
			"Consider periodization in your training",
			"Track your progress to stay motivated")
	default:
		recs = append(recs,
			"Focus on advanced techniques and periodization",
			"Consider sport-specific training if applicable",
			"Pay attention to recovery and injury prevention")
	}

	switch ob.HealthConditions {
	case "back_pain":
		recs = append(recs,
			"Avoid exercises that aggravate back pain",
			"Focus on core strengthening and proper posture",
			"Consider low-impact alternatives to high-impact exercises")
	case "knee_problems":
		recs = append(recs,
			"Avoid high-impact exercises that stress the knees",
			"Focus on strengthening surrounding muscles",
			"Consider swimming or cycling for cardio")
	case "heart_condition":
		recs = append(recs,
			"Consult with your doctor before starting any exercise program",
			"Start with low-intensity activities",
			"Monitor your heart rate during exercise")
	}

	return recs
}
