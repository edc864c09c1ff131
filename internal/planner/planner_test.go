package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onboarding(goal, duration, experience string) Onboarding {
	return Onboarding{
		FitnessGoal:     goal,
		PlanDuration:    duration,
		ExperienceLevel: experience,
	}
}

func TestGenerate_PlanShape(t *testing.T) {
	t.Parallel()

	plan := Generate(Request{
		UserDetails: UserDetails{Name: "Ada"},
		Onboarding:  onboarding("weight_loss", "1_week", "beginner"),
	})

	assert.Equal(t, "WEIGHT LOSS - 1 WEEK PLAN", plan.PlanName)
	assert.Equal(t, "weight_loss", plan.Goal)
	assert.Equal(t, "Ada", plan.CreatedFor)
	assert.NotEmpty(t, plan.CreatedAt)
}

func TestGenerate_WorkoutSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		duration     string
		wantWorkouts int // weeks * days per week
	}{
		{"1_week", 1 * 3},
		{"2_weeks", 2 * 4},
		{"4_weeks", 4 * 5},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			t.Parallel()

			plan := Generate(Request{
				Onboarding: onboarding("general_fitness", tt.duration, "intermediate"),
			})
			assert.Len(t, plan.Workouts, tt.wantWorkouts)

			last := plan.Workouts[len(plan.Workouts)-1]
			assert.Equal(t, weeks(tt.duration), last.Week)
			assert.Equal(t, daysPerWeek(tt.duration), last.Day)
		})
	}
}

func TestGenerate_ExperienceScalesPrescription(t *testing.T) {
	t.Parallel()

	beginner := Generate(Request{
		Onboarding: onboarding("muscle_gain", "1_week", "beginner"),
	})
	advanced := Generate(Request{
		Onboarding: onboarding("muscle_gain", "1_week", "advanced"),
	})

	require.NotEmpty(t, beginner.Workouts)
	require.NotEmpty(t, advanced.Workouts)

	assert.Len(t, beginner.Workouts[0].Exercises, 4)
	assert.Len(t, advanced.Workouts[0].Exercises, 8)
	assert.Equal(t, 2, beginner.Workouts[0].Exercises[0].Sets)
	assert.Equal(t, 4, advanced.Workouts[0].Exercises[0].Sets)
	assert.Equal(t, "30-45 minutes", beginner.Workouts[0].Duration)
	assert.Equal(t, "Moderate to High", advanced.Workouts[0].Intensity)
}

func TestGenerate_AvoidedActivitiesFiltered(t *testing.T) {
	t.Parallel()

	plan := Generate(Request{
		Onboarding: Onboarding{
			FitnessGoal:       "weight_loss",
			PlanDuration:      "4_weeks",
			ExperienceLevel:   "advanced",
			AvoidedActivities: []string{"high_impact"},
		},
	})

	excluded := map[string]bool{
		"Running": true, "Jump Squats": true, "Burpees": true, "High Knees": true,
	}
	for _, w := range plan.Workouts {
		for _, ex := range w.Exercises {
			assert.False(t, excluded[ex.Name], "high-impact exercise %q survived filtering", ex.Name)
		}
	}
}

func TestGenerate_UnknownGoalFallsBack(t *testing.T) {
	t.Parallel()

	plan := Generate(Request{
		Onboarding: onboarding("become_astronaut", "1_week", "beginner"),
	})

	require.NotEmpty(t, plan.Workouts)
	general := map[string]bool{}
	for _, name := range workoutTemplates["general_fitness"] {
		general[name] = true
	}
	for _, ex := range plan.Workouts[0].Exercises {
		assert.True(t, general[ex.Name], "exercise %q not from the general pool", ex.Name)
	}
}

func TestGenerate_Recommendations(t *testing.T) {
	t.Parallel()

	plan := Generate(Request{
		Onboarding: Onboarding{
			FitnessGoal:      "muscle_gain",
			PlanDuration:     "1_week",
			ExperienceLevel:  "beginner",
			HealthConditions: "knee_problems",
		},
	})

	joined := ""
	for _, r := range plan.Recommendations {
		joined += r + "\n"
	}
	assert.Contains(t, joined, "protein intake")
	assert.Contains(t, joined, "proper form")
	assert.Contains(t, joined, "stress the knees")
}
