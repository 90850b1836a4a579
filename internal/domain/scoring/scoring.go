// Package scoring turns self-assessment answers into a normalized stress
// score and maps numeric levels to display categories and recommendations.
// Everything here is pure; callers own the response state.
package scoring

import "math"

// Scoring constants.
const (
	maxAnswerWeight     = 5
	defaultAnswerWeight = 3
	maxScoreValue       = 100

	// Category thresholds. Levels below lowThreshold are "Low", below
	// highThreshold "Moderate", anything else "High".
	lowThreshold  = 30
	highThreshold = 60
)

// Question is one assessment prompt with its fixed answer options.
type Question struct {
	ID       int
	Text     string
	Category string
	Options  []string
}

// Responses maps a question id to the chosen option label. Unanswered
// questions are simply absent.
type Responses map[int]string

// Category is the display bucket for a 0..100 level.
type Category struct {
	Label      string
	ColorClass string
}

// questions is the fixed assessment bank. The scoring denominator is the
// size of this bank, not the number of answered questions.
var questions = []Question{
	{
		ID:       1,
		Text:     "How would you rate your current stress level?",
		Category: "Mental",
		Options:  []string{"Very Low", "Low", "Moderate", "High", "Very High"},
	},
	{
		ID:       2,
		Text:     "How many hours of sleep did you get last night?",
		Category: "Physical",
		Options:  []string{"Less than 4", "4-6", "6-8", "More than 8"},
	},
	{
		ID:       3,
		Text:     "How would you describe your work-life balance today?",
		Category: "Work",
		Options:  []string{"Excellent", "Good", "Fair", "Poor", "Very Poor"},
	},
	{
		ID:       4,
		Text:     "How is your energy level right now?",
		Category: "Physical",
		Options:  []string{"Very Low", "Low", "Moderate", "High", "Very High"},
	},
	{
		ID:       5,
		Text:     "How would you rate your social support system?",
		Category: "Social",
		Options:  []string{"Very Strong", "Strong", "Moderate", "Weak", "Very Weak"},
	},
	{
		ID:       6,
		Text:     "How productive do you feel today?",
		Category: "Work",
		Options:  []string{"Not at all", "Slightly", "Moderately", "Very", "Extremely"},
	},
	{
		ID:       7,
		Text:     "How well can you concentrate right now?",
		Category: "Mental",
		Options:  []string{"Very Poor", "Poor", "Average", "Good", "Excellent"},
	},
	{
		ID:       8,
		Text:     "How often did you take breaks today?",
		Category: "Work",
		Options:  []string{"None", "1-2 times", "3-4 times", "5+ times"},
	},
}

// answerWeights maps option labels to severity 1 (best) through 5 (worst).
// Labels not listed here score defaultAnswerWeight.
var answerWeights = map[string]int{
	"Very Low": 1, "Low": 2, "Moderate": 3, "High": 4, "Very High": 5,
	"Excellent": 1, "Good": 2, "Fair": 3, "Poor": 4, "Very Poor": 5,
	"Very Strong": 1, "Strong": 2, "Weak": 4, "Very Weak": 5,
}

// Questions returns a copy of the assessment bank.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	for i := range out {
		opts := make([]string, len(out[i].Options))
		copy(opts, out[i].Options)
		out[i].Options = opts
	}
	return out
}

// Score sums the severity weight of every answered question and normalizes
// against a fully-answered worst case:
//
//	round(sum / (len(questions) * maxAnswerWeight) * 100)
//
// Unanswered questions contribute nothing to the numerator; the denominator
// is fixed, so a partially-answered set scores low rather than erroring.
func Score(responses Responses) int {
	total := 0
	for _, answer := range responses {
		weight, ok := answerWeights[answer]
		if !ok {
			weight = defaultAnswerWeight
		}
		total += weight
	}
	denom := len(questions) * maxAnswerWeight
	return int(math.Round(float64(total) / float64(denom) * maxScoreValue))
}

// Recommendations returns the fixed, ordered advice list for a score tier.
func Recommendations(score int) []string {
	switch {
	case score < lowThreshold:
		return []string{
			"Keep up the good work!",
			"Consider sharing your stress management techniques with colleagues",
			"Schedule regular check-ins to maintain your well-being",
		}
	case score < highThreshold:
		return []string{
			"Try incorporating short meditation breaks",
			"Schedule regular exercise sessions",
			"Consider talking to a wellness coach",
		}
	default:
		return []string{
			"Schedule an appointment with a wellness professional",
			"Take immediate steps to reduce workload",
			"Practice stress-reduction techniques regularly",
		}
	}
}

// Categorize maps a 0..100 level to its display category. The color values
// are the web client's display classes and are passed through untouched.
func Categorize(level int) Category {
	switch {
	case level < lowThreshold:
		return Category{Label: "Low", ColorClass: "text-green-500"}
	case level < highThreshold:
		return Category{Label: "Moderate", ColorClass: "text-yellow-500"}
	default:
		return Category{Label: "High", ColorClass: "text-red-500"}
	}
}
