package event

import "time"

const UserRegisteredDestination string = "user_registered"
const UserRegisteredConsumerReminder string = "user_registered_reminder"

type UserRegisteredMessage struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	RegisteredAt time.Time `json:"registered_at"`
}
