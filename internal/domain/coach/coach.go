// Package coach implements the study-advice collaborator: a stateless
// keyword classifier over a fixed intent set, with a canned response per
// intent. Pure functions, no persistence, no external calls.
package coach

import "strings"

// Intent is one of the enumerated advice topics.
type Intent string

const (
	IntentStudyHabits Intent = "study_habits"
	IntentSchedule    Intent = "schedule"
	IntentMemorize    Intent = "memorize"
	IntentMotivation  Intent = "motivation"
	IntentFocus       Intent = "focus"
	IntentGeneral     Intent = "general"
)

// ResponseType is the presentation category attached to a response.
type ResponseType string

const (
	TypeSuggestion ResponseType = "suggestion"
	TypeMotivation ResponseType = "motivation"
	TypeTip        ResponseType = "tip"
)

// Response is the advice returned for an intent: static text plus a
// category tag.
type Response struct {
	Intent  Intent
	Content string
	Type    ResponseType
}

// intentKeywords maps each intent to the substrings that select it.
// Matching is case-insensitive and first-match-wins in the order below.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentStudyHabits, []string{"habit"}},
	{IntentSchedule, []string{"schedule", "plan"}},
	{IntentMemorize, []string{"memorize", "remember"}},
	{IntentMotivation, []string{"motivat", "inspire"}},
	{IntentFocus, []string{"focus", "concentrat"}},
}

// ClassifyIntent maps free text to an intent via case-insensitive
// substring match on the fixed keyword table. Unmatched text classifies
// as IntentGeneral.
func ClassifyIntent(text string) Intent {
	lowered := strings.ToLower(text)

	for _, row := range intentKeywords {
		for _, kw := range row.keywords {
			if strings.Contains(lowered, kw) {
				return row.intent
			}
		}
	}

	return IntentGeneral
}

// Respond returns the canned response for an intent.
func Respond(intent Intent) Response {
	r, ok := responses[intent]
	if !ok {
		return responses[IntentGeneral]
	}
	return r
}

// Advise classifies the text and returns the matching response in one call.
func Advise(text string) Response {
	return Respond(ClassifyIntent(text))
}

// Suggestions returns the fixed prompt suggestions shown to the user.
func Suggestions() []string {
	return []string{
		"How can I improve my study habits?",
		"Create a study schedule for me",
		"What's the best way to memorize formulas?",
		"Help me stay motivated",
		"Tips for better focus",
	}
}

var responses = map[Intent]Response{
	IntentStudyHabits: {
		Intent: IntentStudyHabits,
		Type:   TypeTip,
		Content: "Here are some proven study habits that can transform your learning:\n\n" +
			"🎯 **Active Recall**: Test yourself regularly instead of just re-reading\n" +
			"📝 **Spaced Repetition**: Review material at increasing intervals\n" +
			"⏰ **Pomodoro Technique**: Study in 25-minute focused blocks\n" +
			"🧠 **Teach Others**: Explain concepts to reinforce your understanding\n" +
			"💤 **Quality Sleep**: Get 7-9 hours for memory consolidation",
	},
	IntentSchedule: {
		Intent: IntentSchedule,
		Type:   TypeSuggestion,
		Content: "Let me help you create an effective study schedule:\n\n" +
			"📅 **Morning (9-11 AM)**: Your brain is freshest - tackle difficult subjects\n" +
			"🍽️ **After Lunch (2-4 PM)**: Review and practice problems\n" +
			"🌅 **Evening (7-9 PM)**: Light review and reading\n\n" +
			"✅ Include 15-minute breaks every hour\n" +
			"✅ Reserve weekends for review and catch-up\n" +
			"✅ Plan specific goals for each session",
	},
	IntentMemorize: {
		Intent: IntentMemorize,
		Type:   TypeTip,
		Content: "Effective memorization techniques:\n\n" +
			"🧩 **Chunking**: Break information into smaller, manageable pieces\n" +
			"🎨 **Visual Memory**: Create mind maps and diagrams\n" +
			"📖 **Storytelling**: Create narratives linking facts together\n" +
			"🔄 **Multiple Senses**: Read aloud, write, and visualize\n" +
			"🏃 **Movement**: Walk while reviewing to boost retention",
	},
	IntentMotivation: {
		Intent: IntentMotivation,
		Type:   TypeMotivation,
		Content: "Here's how to stay motivated on your learning journey:\n\n" +
			"🎯 Set specific, achievable daily goals\n" +
			"🏆 Celebrate small wins and progress\n" +
			"👥 Join study groups or find accountability partners\n" +
			"📈 Track your progress visually\n" +
			"🌟 Remember your 'why' - your long-term goals\n" +
			"💪 Take breaks to prevent burnout",
	},
	IntentFocus: {
		Intent: IntentFocus,
		Type:   TypeTip,
		Content: "Boost your focus with these strategies:\n\n" +
			"📱 Put devices in airplane mode while studying\n" +
			"🎵 Try instrumental music or white noise\n" +
			"🪑 Create a dedicated study space\n" +
			"🍃 Ensure good lighting and ventilation\n" +
			"💧 Stay hydrated and take movement breaks\n" +
			"🧘 Practice mindfulness before study sessions",
	},
	IntentGeneral: {
		Intent: IntentGeneral,
		Type:   TypeSuggestion,
		Content: "I understand you're looking for study guidance. Here are some ways I can help:\n\n" +
			"📚 Study techniques and strategies\n" +
			"⏰ Creating effective schedules\n" +
			"🧠 Memory and retention tips\n" +
			"💪 Motivation and goal setting\n" +
			"🎯 Focus and concentration methods\n\n" +
			"What specific area would you like to explore?",
	},
}
