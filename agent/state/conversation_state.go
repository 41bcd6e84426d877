package state

import (
	"fmt"
	"strings"
)

// ConversationState is the closed set of states a session can be in.
type ConversationState uint8

const (
	StateIdle ConversationState = iota
	StateTaskPlanning
	StateTaskExecution
	StateInformationGathering
	StateClarificationNeeded
)

var stateNames = [...]string{
	StateIdle:                 "idle",
	StateTaskPlanning:         "task_planning",
	StateTaskExecution:        "task_execution",
	StateInformationGathering: "information_gathering",
	StateClarificationNeeded:  "clarification_needed",
}

func (s ConversationState) Valid() bool {
	return int(s) < len(stateNames)
}

func (s ConversationState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ConversationState(%d)", uint8(s))
	}
	return stateNames[s]
}

// ParseConversationState accepts the names produced by String, in any case.
func ParseConversationState(raw string) (ConversationState, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for i, n := range stateNames {
		if n == name {
			return ConversationState(i), nil
		}
	}
	return StateIdle, fmt.Errorf("unknown conversation state %q", raw)
}

func (s ConversationState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid conversation state %d", uint8(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *ConversationState) UnmarshalText(text []byte) error {
	parsed, err := ParseConversationState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
