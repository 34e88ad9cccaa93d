package event

import "time"

const PomodoroCompletedDestination string = "pomodoro_completed"
const PomodoroCompletedConsumerGoal string = "pomodoro_completed_goal"

// PomodoroCompletedMessage is published when a focus session finishes.
// GoalID and TodoID are zero when the session was not linked.
type PomodoroCompletedMessage struct {
	SessionID    int64     `json:"session_id,string"`
	UserID       int64     `json:"user_id,string"`
	GoalID       int64     `json:"goal_id,string,omitempty"`
	TodoID       int64     `json:"todo_id,string,omitempty"`
	FocusMinutes int32     `json:"focus_minutes"`
	CompletedAt  time.Time `json:"completed_at"`
}
