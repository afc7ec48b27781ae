// Package models defines the core data structures for NestGuide.
//
// It includes the onboarding stage enum, the profile fields written during
// onboarding, chat transcript messages, and shared API request/response types.
package models

import (
	"errors"
	"strings"
)

// Stage identifies one discrete step of the onboarding dialogue.
// StageAssistant (-1) means onboarding is complete and the assistant answers
// free-form questions; 0..6 are the sequential data-collection steps.
type Stage int

const (
	// StageAssistant is free-form assistant mode after onboarding completes.
	StageAssistant Stage = -1
	// StageName collects the user's full name.
	StageName Stage = 0
	// StageLocation collects the user's current city and country.
	StageLocation Stage = 1
	// StageHometown collects the user's hometown.
	StageHometown Stage = 2
	// StageBirthday collects a calendar-selected date of birth.
	StageBirthday Stage = 3
	// StageUniversity collects the user's university.
	StageUniversity Stage = 4
	// StageMajor collects the user's field of study.
	StageMajor Stage = 5
	// StageGraduation collects a month/year graduation date.
	StageGraduation Stage = 6
)

// IsValidStage checks if the given stage is one the dialogue can be in.
func IsValidStage(s Stage) bool {
	return s == StageAssistant || (s >= StageName && s <= StageGraduation)
}

// IsOnboarding reports whether the stage is a data-collection step.
func (s Stage) IsOnboarding() bool {
	return s >= StageName && s <= StageGraduation
}

// String returns a log-friendly name for the stage.
func (s Stage) String() string {
	switch s {
	case StageAssistant:
		return "assistant"
	case StageName:
		return "name"
	case StageLocation:
		return "location"
	case StageHometown:
		return "hometown"
	case StageBirthday:
		return "birthday"
	case StageUniversity:
		return "university"
	case StageMajor:
		return "major"
	case StageGraduation:
		return "graduation"
	default:
		return "unknown"
	}
}

// Role identifies the author of a transcript or turn-log message.
type Role string

const (
	// RoleUser marks a message typed by the user.
	RoleUser Role = "user"
	// RoleBot marks a message produced by the assistant.
	RoleBot Role = "assistant"
)

// ChatMessage is a single message in the transcript or turn log.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Profile field names as the backend expects them in partial updates.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldCurrentLocation = "currentLocation"
	FieldHometown        = "hometown"
	FieldBirthday        = "birthday"
	FieldUniversity      = "university"
	FieldMajor           = "major"
	FieldGraduationDate  = "graduationDate"
)

// RequiredProfileFields lists every field onboarding must fill before the
// assistant switches to free-form mode.
var RequiredProfileFields = []string{
	FieldFirstName,
	FieldLastName,
	FieldCurrentLocation,
	FieldHometown,
	FieldBirthday,
	FieldUniversity,
	FieldMajor,
	FieldGraduationDate,
}

// Profile mirrors the subset of the remote user record that onboarding writes.
type Profile struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	CurrentLocation string `json:"currentLocation"`
	Hometown        string `json:"hometown"`
	Birthday        string `json:"birthday"`
	University      string `json:"university"`
	Major           string `json:"major"`
	GraduationDate  string `json:"graduationDate"`
}

// Field returns the named profile field value.
func (p *Profile) Field(name string) string {
	switch name {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldCurrentLocation:
		return p.CurrentLocation
	case FieldHometown:
		return p.Hometown
	case FieldBirthday:
		return p.Birthday
	case FieldUniversity:
		return p.University
	case FieldMajor:
		return p.Major
	case FieldGraduationDate:
		return p.GraduationDate
	default:
		return ""
	}
}

// MissingFields returns the required fields that are empty or whitespace.
func (p *Profile) MissingFields() []string {
	var missing []string
	for _, name := range RequiredProfileFields {
		if strings.TrimSpace(p.Field(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// IsComplete reports whether every required profile field is populated.
func (p *Profile) IsComplete() bool {
	return len(p.MissingFields()) == 0
}

// ProfileUpdate is a partial-field update body for PATCH /user/update.
type ProfileUpdate map[string]string

// Error variables shared across the flow and API layers.
var (
	ErrTurnInFlight     = errors.New("a turn is already being processed for this session")
	ErrSessionCompleted = errors.New("session has completed onboarding hand-off")
	ErrSessionClosed    = errors.New("session has been closed")
	ErrEmptyToken       = errors.New("authorization token is required")
)

// TurnRequest is the payload for posting one user turn. Birthday carries the
// calendar-picker value for the birthday stage; GradMonth/GradYear carry the
// select values for the graduation stage.
type TurnRequest struct {
	Message   string `json:"message"`
	Birthday  string `json:"birthday,omitempty"`
	GradMonth int    `json:"grad_month,omitempty"`
	GradYear  int    `json:"grad_year,omitempty"`
}

// SessionSnapshot is the API view of a session at a point in time.
type SessionSnapshot struct {
	SessionID  string        `json:"session_id"`
	Stage      Stage         `json:"stage"`
	Transcript []ChatMessage `json:"transcript"`
	Completed  bool          `json:"completed"`
	Redirect   string        `json:"redirect,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope for every endpoint.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
