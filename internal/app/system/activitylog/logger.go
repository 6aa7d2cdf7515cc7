// internal/app/system/activitylog/logger.go
package activitylog

import (
	"context"

	"github.com/dalemusser/counselhub/internal/app/store/activity"
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds activity logging configuration.
//
// Mode values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only),
// "off" (disabled).
type Config struct {
	Mode string
}

// Logger records domain events to the activities collection and/or
// structured logs.
//
// Recording is best effort: it runs after the primary write has succeeded,
// and a failure to record never fails the user's operation. Failures are
// logged and swallowed.
type Logger struct {
	store  *activity.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new activity Logger.
func New(store *activity.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the entry to zap with consistent structure.
func (l *Logger) logToZap(entry models.ActivityEntry) {
	fields := []zap.Field{
		zap.Bool("activity", true),
		zap.String("type", entry.Type),
		zap.String("title", entry.Title),
		zap.String("actor_id", entry.ActorID.Hex()),
		zap.String("actor_name", entry.ActorName),
	}
	if entry.CaseID != nil {
		fields = append(fields, zap.String("case_id", entry.CaseID.Hex()))
	}
	for k, v := range entry.Meta {
		fields = append(fields, zap.String("meta_"+k, v))
	}
	l.zapLog.Info("activity", fields...)
}

// Record appends an activity entry according to configuration. A nil Logger
// is a no-op, so tests and callers without logging wired can pass nil.
func (l *Logger) Record(ctx context.Context, entry models.ActivityEntry) {
	if l == nil || l.config.Mode == "off" {
		return
	}

	if l.config.Mode == "all" || l.config.Mode == "log" {
		l.logToZap(entry)
	}

	if l.config.Mode == "all" || l.config.Mode == "db" || l.config.Mode == "" {
		if err := l.store.Create(ctx, entry); err != nil {
			l.zapLog.Error("failed to record activity entry",
				zap.Error(err),
				zap.String("type", entry.Type),
			)
		}
	}
}

// actor extracts the acting user's identity from the request context.
func actor(user *auth.SessionUser) (primitive.ObjectID, string) {
	if user == nil {
		return primitive.NilObjectID, ""
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return primitive.NilObjectID, user.Name
	}
	return id, user.Name
}

// --- Case events ---

// CaseCreated records that a user opened a new case.
func (l *Logger) CaseCreated(ctx context.Context, user *auth.SessionUser, caseID primitive.ObjectID, personName string) {
	actorID, actorName := actor(user)
	l.Record(ctx, models.ActivityEntry{
		Type:      models.ActivityCaseCreated,
		Title:     "Case opened for " + personName,
		ActorID:   actorID,
		ActorName: actorName,
		CaseID:    &caseID,
		Meta: map[string]string{
			"person_name": personName,
		},
	})
}

// CaseAssigned records that a case was assigned to a counselor.
func (l *Logger) CaseAssigned(ctx context.Context, user *auth.SessionUser, caseID primitive.ObjectID, personName, counselorName string) {
	actorID, actorName := actor(user)
	l.Record(ctx, models.ActivityEntry{
		Type:      models.ActivityCaseAssigned,
		Title:     "Case for " + personName + " assigned to " + counselorName,
		ActorID:   actorID,
		ActorName: actorName,
		CaseID:    &caseID,
		Meta: map[string]string{
			"person_name":    personName,
			"counselor_name": counselorName,
		},
	})
}

// CaseStatusChanged records a case status transition.
func (l *Logger) CaseStatusChanged(ctx context.Context, user *auth.SessionUser, caseID primitive.ObjectID, personName, oldStatus, newStatus string) {
	actorID, actorName := actor(user)
	l.Record(ctx, models.ActivityEntry{
		Type:      models.ActivityCaseStatusChanged,
		Title:     "Case for " + personName + " moved to " + newStatus,
		ActorID:   actorID,
		ActorName: actorName,
		CaseID:    &caseID,
		Meta: map[string]string{
			"person_name": personName,
			"old_status":  oldStatus,
			"new_status":  newStatus,
		},
	})
}

// --- Note and report events ---

// NoteAdded records that a meeting note was added to a case.
func (l *Logger) NoteAdded(ctx context.Context, user *auth.SessionUser, caseID primitive.ObjectID, personName string) {
	actorID, actorName := actor(user)
	l.Record(ctx, models.ActivityEntry{
		Type:      models.ActivityNoteAdded,
		Title:     "Meeting note added to case for " + personName,
		ActorID:   actorID,
		ActorName: actorName,
		CaseID:    &caseID,
	})
}

// ReportAdded records that a session report was added to a case.
func (l *Logger) ReportAdded(ctx context.Context, user *auth.SessionUser, caseID primitive.ObjectID, personName string) {
	actorID, actorName := actor(user)
	l.Record(ctx, models.ActivityEntry{
		Type:      models.ActivityReportAdded,
		Title:     "Session report added to case for " + personName,
		ActorID:   actorID,
		ActorName: actorName,
		CaseID:    &caseID,
	})
}

// --- Appointment events ---

// AppointmentCreated records a newly scheduled appointment. caseID may be
// nil for appointments not tied to a case.
func (l *Logger) AppointmentCreated(ctx context.Context, user *auth.SessionUser, caseID *primitive.ObjectID, counselorName, room string) {
	actorID, actorName := actor(user)
	meta := map[string]string{
		"counselor_name": counselorName,
	}
	if room != "" {
		meta["room"] = room
	}
	l.Record(ctx, models.ActivityEntry{
		Type:      models.ActivityAppointmentCreated,
		Title:     "Appointment scheduled with " + counselorName,
		ActorID:   actorID,
		ActorName: actorName,
		CaseID:    caseID,
		Meta:      meta,
	})
}
