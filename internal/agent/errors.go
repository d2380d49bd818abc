package agent

import "fmt"

// NoToolCallError indicates the model never requested a record retrieval even
// though the run requires one and the fallback was disabled.
type NoToolCallError struct {
	Turns int
}

func (e *NoToolCallError) Error() string {
	return fmt.Sprintf("model made no tool call in %d turns", e.Turns)
}

// TurnLimitError indicates the conversation did not reach a final answer
// within the configured number of model invocations. The limit is a runaway
// guard, not part of the state machine itself.
type TurnLimitError struct {
	MaxTurns int
}

func (e *TurnLimitError) Error() string {
	return fmt.Sprintf("generation run exceeded %d model turns", e.MaxTurns)
}

// GenerationParseError indicates the model's final output could not be parsed
// into a structured resume.
type GenerationParseError struct {
	Reason string
	Output string
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("failed to parse generated resume: %s", e.Reason)
}
