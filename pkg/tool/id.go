package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered id, used as primary key for every table.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}
