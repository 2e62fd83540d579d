package quash

import (
	"os"
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        string
	StartTime time.Time
	UserID    int
	UserName  string
	Hostname  string
	PID       int
}

// NewSession captures who is running this shell instance.
func NewSession() *Session {
	hostname, _ := os.Hostname()
	return &Session{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		UserID:    os.Getuid(),
		UserName:  os.Getenv("USER"),
		Hostname:  hostname,
		PID:       os.Getpid(),
	}
}
