package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reflection is a saved pass through the flow.
type Reflection struct {
	ID                ReflectionID `json:"id"`
	CreatedAt         time.Time    `json:"created_at"`
	Mood              Mood         `json:"mood"`
	GuidingQuestion   string       `json:"guiding_question"`
	WrittenText       string       `json:"text"`
	GeneratedResponse *string      `json:"ai_response,omitempty"`
}

var (
	ErrEmptyText   = errors.New("reflection text is empty")
	ErrMissingMood = errors.New("reflection has no mood")
)

// Validate checks the fields every persisted reflection must carry.
func (r Reflection) Validate() error {
	if r.ID == "" {
		return errors.New("reflection id is empty")
	}
	if !r.Mood.Valid() {
		return ErrMissingMood
	}
	if strings.TrimSpace(r.WrittenText) == "" {
		return ErrEmptyText
	}
	return nil
}

// NewReflectionID returns a time-prefixed id with a random suffix.
// Ids are unique within a process; they are not meant to be global.
func NewReflectionID(now time.Time) ReflectionID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return ReflectionID(fmt.Sprintf("%d-%s", now.UnixMilli(), suffix))
}
