// internal/domain/models/note.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MeetingNote is a free-text record attached to a case, ordered by creation
// time. A note belongs to exactly one case.
type MeetingNote struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID     primitive.ObjectID `bson:"case_id" json:"case_id"`
	Body       string             `bson:"body" json:"body"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// QA is one question/answer pair of a session report questionnaire.
type QA struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// SessionReport is a structured questionnaire record attached to a case.
type SessionReport struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID     primitive.ObjectID `bson:"case_id" json:"case_id"`
	Summary    string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Questions  []QA               `bson:"questions,omitempty" json:"questions,omitempty"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
