package pkg

import "github.com/google/uuid"

// GenerateMatchID - returns a unique ID for a new match.
func GenerateMatchID() string {
	return uuid.NewString()
}

// GenerateSessionID - returns a unique ID for a new player session.
func GenerateSessionID() string {
	return uuid.NewString()
}
