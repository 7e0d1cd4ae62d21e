package bootstrap

import "fmt"

// Action is what a stage did to converge its resource.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// Outcome is the result of one stage. It is only used for orchestration and reporting.
type Outcome struct {
	Stage   string
	Success bool
	Action  Action
	Detail  string

	// Succeeded out of Attempted, for stages that handle several records
	Succeeded int
	Attempted int

	Err error
}

func succeeded(stage string, action Action, format string, args ...interface{}) Outcome {
	return Outcome{Stage: stage, Success: true, Action: action, Detail: fmt.Sprintf(format, args...)}
}

func failed(stage string, err error) Outcome {
	return Outcome{Stage: stage, Action: ActionFailed, Detail: err.Error(), Err: err}
}
