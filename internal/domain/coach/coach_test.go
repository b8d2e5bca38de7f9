package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"How can I improve my study habits?", IntentStudyHabits},
		{"Create a study schedule for me", IntentSchedule},
		{"help me PLAN my week", IntentSchedule},
		{"What's the best way to memorize formulas?", IntentMemorize},
		{"I can't remember anything", IntentMemorize},
		{"Help me stay motivated", IntentMotivation},
		{"inspire me please", IntentMotivation},
		{"Tips for better focus", IntentFocus},
		{"I cannot concentrate at all", IntentFocus},
		{"hello there", IntentGeneral},
		{"", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.text))
		})
	}
}

func TestClassifyIntent_CaseInsensitive(t *testing.T) {
	assert.Equal(t, IntentStudyHabits, ClassifyIntent("MY HABITS ARE BAD"))
	assert.Equal(t, IntentFocus, ClassifyIntent("FoCuS"))
}

func TestClassifyIntent_HabitWinsOverSchedule(t *testing.T) {
	// The keyword table is ordered; habit is checked before schedule.
	assert.Equal(t, IntentStudyHabits, ClassifyIntent("build a habit schedule"))
}

func TestRespond_EveryIntentHasContent(t *testing.T) {
	intents := []Intent{
		IntentStudyHabits, IntentSchedule, IntentMemorize,
		IntentMotivation, IntentFocus, IntentGeneral,
	}

	for _, intent := range intents {
		r := Respond(intent)
		assert.Equal(t, intent, r.Intent)
		assert.NotEmpty(t, r.Content)
		assert.NotEmpty(t, r.Type)
	}
}

func TestRespond_UnknownIntentFallsBackToGeneral(t *testing.T) {
	r := Respond(Intent("nonsense"))
	assert.Equal(t, IntentGeneral, r.Intent)
}

func TestAdvise_IsStateless(t *testing.T) {
	first := Advise("help me focus")
	second := Advise("help me focus")
	assert.Equal(t, first, second)
}

func TestSuggestions_Fixed(t *testing.T) {
	assert.Len(t, Suggestions(), 5)
}
