package models

import "time"

const MaxMessageLength = 2000

type Chat struct {
	ID           string
	Participants []string
	CreatedAt    time.Time
}

func (c Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message belongs to exactly one chat and never exists on its own.
type Message struct {
	ID        string
	ChatID    string
	SenderID  string
	Text      string
	CreatedAt time.Time
}

// MessageView is a message joined with its sender's name.
type MessageView struct {
	Message
	SenderFirstName string
	SenderLastName  string
}
