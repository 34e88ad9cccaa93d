package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings, used for correlation IDs, JWT
// IDs and storage object keys.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (*UUID) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
