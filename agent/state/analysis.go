package state

import (
	"strings"
	"time"
	"unicode/utf8"
)

const topicShiftThreshold = 0.3

type ConversationAnalysis struct {
	MessageCount        int           `json:"message_count"`
	Duration            time.Duration `json:"duration"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	// MessagesPerHour is 0 until some time has elapsed.
	MessagesPerHour float64 `json:"messages_per_hour"`
	TopicShifts     int     `json:"topic_shifts"`
	Complexity      string  `json:"complexity"`
}

// AnalyzeConversationPattern summarises pacing and topic movement over the current history.
func (s *Session) AnalyzeConversationPattern() ConversationAnalysis {
	elapsed := s.meta.LastActivity.Sub(s.meta.CreatedAt)
	count := s.meta.MessageCount

	out := ConversationAnalysis{
		MessageCount: count,
		Duration:     elapsed,
	}
	if count > 0 {
		out.AverageResponseTime = elapsed / time.Duration(count)
	}
	if hours := elapsed.Hours(); hours > 0 {
		out.MessagesPerHour = float64(count) / hours
	}

	for i := 1; i < len(s.history); i++ {
		if IsTopicShift(s.history[i-1].Content, s.history[i].Content) {
			out.TopicShifts++
		}
	}
	out.Complexity = complexityLabel(len(s.taskContext.TaskSteps), out.TopicShifts)
	return out
}

func complexityLabel(taskSteps, topicShifts int) string {
	switch {
	case taskSteps > 5 || topicShifts > 3:
		return "high"
	case taskSteps > 2 || topicShifts > 1:
		return "medium"
	default:
		return "low"
	}
}

// IsTopicShift reports whether two consecutive messages share too few significant words.
func IsTopicShift(prev, next string) bool {
	return TopicOverlap(prev, next) < topicShiftThreshold
}

// TopicOverlap is |A∩B| / max(|A|,|B|) over the whitespace-separated words
// longer than three characters. Words are compared exactly, so case and
// punctuation count. Two messages without any such words count as fully
// overlapping.
func TopicOverlap(a, b string) float64 {
	wa, wb := significantWords(a), significantWords(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(wa), len(wb)))
}

func significantWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) > 3 {
			words[w] = struct{}{}
		}
	}
	return words
}
