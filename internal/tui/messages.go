package tui

// Messages for updating the TUI from outside

// MsgStepStarted is sent when a step begins
type MsgStepStarted struct {
	Step   string
	Detail string
}

// MsgStepDetail updates the detail of a running step
type MsgStepDetail struct {
	Step   string
	Detail string
}

// MsgStepDone is sent when a step completes
type MsgStepDone struct {
	Step   string
	Detail string
}

// MsgStepFailed is sent when a step fails
type MsgStepFailed struct {
	Step   string
	Detail string
}

// MsgCountdown is sent on every countdown tick; zero ends the countdown
type MsgCountdown struct {
	Remaining int
}

// MsgNotice is sent with an informational line such as a slow-request warning
type MsgNotice struct {
	Text string
}

// MsgStreamContent carries the full answer text received so far
type MsgStreamContent struct {
	Text string
}

// MsgResult is sent with the final answer
type MsgResult struct {
	Text    string
	Warning string
}

// MsgError is sent when the action fails
type MsgError struct {
	Error string
}

// MsgQuit is sent to quit the application
type MsgQuit struct{}
