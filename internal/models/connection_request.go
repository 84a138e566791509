package models

import "time"

type RequestStatus string

const (
	RequestStatusInterested RequestStatus = "interested"
	RequestStatusIgnored    RequestStatus = "ignored"
	RequestStatusAccepted   RequestStatus = "accepted"
	RequestStatusRejected   RequestStatus = "rejected"
)

// Sendable reports whether a sender may create an edge with this status.
func (s RequestStatus) Sendable() bool {
	return s == RequestStatusInterested || s == RequestStatusIgnored
}

// Reviewable reports whether a recipient may move a pending edge to this status.
func (s RequestStatus) Reviewable() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

type ConnectionRequest struct {
	ID         string
	FromUserID string
	ToUserID   string
	Status     RequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Other returns the party of the edge that is not userID.
func (r ConnectionRequest) Other(userID string) string {
	if r.FromUserID == userID {
		return r.ToUserID
	}
	return r.FromUserID
}

// PendingRequest is an interested edge addressed to the caller, with the sender.
type PendingRequest struct {
	RequestID string
	From      User
	CreatedAt time.Time
}

// Recipient is someone with pending requests to be reminded about.
type Recipient struct {
	UserID    string
	Email     string
	FirstName string
}

// OrderedPair returns the two ids in canonical order. Storage keys unique
// edges and chats on this pair.
func OrderedPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}
