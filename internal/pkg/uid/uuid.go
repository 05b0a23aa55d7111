package uid

import "github.com/google/uuid"

// UUID generates time-ordered RFC 9562 UUID strings.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
