package service

import "gittogether/api/internal/apperr"

// Error codes surfaced to HTTP and realtime clients.
const (
	CodeSelfRequest        = "SELF_REQUEST"
	CodeProfileIncomplete  = "PROFILE_INCOMPLETE"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeRequestNotFound    = "REQUEST_NOT_FOUND"
	CodeDuplicateRequest   = "DUPLICATE_REQUEST"
	CodeAlreadyConnected   = "ALREADY_CONNECTED"
	CodeRequestClosed      = "REQUEST_CLOSED"
	CodeNotConnected       = "NOT_CONNECTED"
	CodeInvalidChat        = "INVALID_CHAT"
	CodeChatWriteForbidden = "CHAT_WRITE_FORBIDDEN"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidSession     = "INVALID_SESSION"
	CodeImageNotFound      = "IMAGE_NOT_FOUND"
	CodeInvalidImage       = "INVALID_IMAGE"
)

var (
	ErrSelfRequest       = apperr.New(apperr.KindValidation, CodeSelfRequest, "You cannot send a connection request to yourself")
	ErrProfileIncomplete = apperr.New(apperr.KindValidation, CodeProfileIncomplete, "Complete your profile before sending connection requests")
	ErrInvalidStatus     = apperr.New(apperr.KindValidation, CodeInvalidStatus, "Invalid status")
	ErrInvalidMessage    = apperr.New(apperr.KindValidation, apperr.CodeValidation, "Message must be between 1 and 2000 characters")
	ErrImageNotFound     = apperr.New(apperr.KindValidation, CodeImageNotFound, "Profile image was not uploaded")
	ErrInvalidImage      = apperr.New(apperr.KindValidation, CodeInvalidImage, "Profile image must be a JPEG or PNG")

	ErrUserNotFound    = apperr.New(apperr.KindNotFound, CodeUserNotFound, "User not found")
	ErrRequestNotFound = apperr.New(apperr.KindNotFound, CodeRequestNotFound, "Connection request not found")
	ErrEmailNotFound   = apperr.New(apperr.KindNotFound, CodeEmailNotFound, "Email not found. Please sign up.")

	ErrDuplicateRequest = apperr.New(apperr.KindConflict, CodeDuplicateRequest, "You have already sent a request to this user")
	ErrAlreadyConnected = apperr.New(apperr.KindConflict, CodeAlreadyConnected, "You are already connected with this user")
	ErrRequestRejected  = apperr.New(apperr.KindConflict, CodeRequestClosed, "A request between you and this user already exists and cannot be changed")
	ErrEmailTaken       = apperr.New(apperr.KindConflict, CodeEmailTaken, "Email already exists")

	ErrNotConnected       = apperr.New(apperr.KindAuthorization, CodeNotConnected, "You can only chat with your connections")
	ErrInvalidChat        = apperr.New(apperr.KindAuthorization, CodeInvalidChat, "Chat not found or you are not a participant")
	ErrChatWriteForbidden = apperr.New(apperr.KindAuthorization, CodeChatWriteForbidden, "You are not allowed to send messages to this chat")

	ErrInvalidCredentials  = apperr.New(apperr.KindAuthentication, CodeInvalidCredentials, "Invalid password")
	ErrUnauthorized        = apperr.New(apperr.KindAuthentication, CodeUnauthorized, "Please login")
	ErrInvalidSession      = apperr.New(apperr.KindAuthentication, CodeInvalidSession, "Session is invalid or expired")
	ErrSessionUserNotFound = apperr.New(apperr.KindAuthentication, CodeUserNotFound, "User no longer exists")
)

const msgDuplicateReceived = "This user has already sent you a request"
