// internal/app/store/appointments/store.go

// Package apptstore persists appointments and enforces the scheduling rules
// on writes: minimum duration, and no overlapping bookings of the same room
// on the same day. The rules themselves live in internal/app/system/schedule;
// this store loads the relevant room/day snapshot and applies them.
package apptstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/schedule"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrRoomConflict = errors.New("the room is already booked for this time")
	errNoCounselor  = errors.New("an appointment must have a counselor")
	errNoDate       = errors.New("an appointment must have a date")
	errEmptyTitle   = errors.New("an appointment must have a title")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("appointments")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// validate applies the field and duration rules shared by Create and Update.
func validate(a *models.Appointment) error {
	a.Title = normalize.Name(a.Title)
	a.Room = normalize.Name(a.Room)
	a.StartTime = normalize.TimeOfDay(a.StartTime)
	a.EndTime = normalize.TimeOfDay(a.EndTime)
	if a.Title == "" {
		return errEmptyTitle
	}
	if a.CounselorID.IsZero() {
		return errNoCounselor
	}
	if a.Date.IsZero() {
		return errNoDate
	}
	return schedule.ValidateDuration(a.Date, a.StartTime, a.EndTime)
}

// checkRoom loads the room's bookings for the appointment's day and rejects
// the write if the candidate interval overlaps one of them.
func (s *Store) checkRoom(ctx context.Context, a models.Appointment, excludeID primitive.ObjectID) error {
	if a.Room == "" {
		return nil
	}
	existing, err := s.ListByRoomDate(ctx, a.Room, a.Date)
	if err != nil {
		return err
	}
	if schedule.HasConflict(a.Room, a.Date, a.StartTime, a.EndTime, existing, excludeID) {
		return ErrRoomConflict
	}
	return nil
}

func (s *Store) Create(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	if err := validate(&a); err != nil {
		return a, err
	}
	if err := s.checkRoom(ctx, a, primitive.NilObjectID); err != nil {
		return a, err
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// Update rewrites an appointment's schedulable fields. The conflict check
// excludes the appointment's own prior booking so an unmoved appointment
// does not collide with itself.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, a models.Appointment) error {
	if err := validate(&a); err != nil {
		return err
	}
	if err := s.checkRoom(ctx, a, id); err != nil {
		return err
	}
	set := bson.M{
		"title":          a.Title,
		"counselor_id":   a.CounselorID,
		"counselor_name": a.CounselorName,
		"date":           a.Date,
		"start_time":     a.StartTime,
		"end_time":       a.EndTime,
		"room":           a.Room,
		"description":    a.Description,
		"updated_at":     time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if a.CaseID == nil {
		update["$unset"] = bson.M{"case_id": "", "case_name": ""}
	} else {
		set["case_id"] = *a.CaseID
		set["case_name"] = a.CaseName
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByRoomDate returns every appointment in a room on a calendar day,
// sorted by start time. This is the snapshot the conflict check runs over.
func (s *Store) ListByRoomDate(ctx context.Context, room string, date time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	filter := bson.M{
		"room": room,
		"date": bson.M{"$gte": dayStart, "$lt": dayStart.AddDate(0, 0, 1)},
	}
	return s.find(ctx, filter, 0)
}

// ListByMonth returns all appointments whose date falls inside the given
// calendar month, for the month grid.
func (s *Store) ListByMonth(ctx context.Context, year int, month time.Month) ([]models.Appointment, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	filter := bson.M{"date": bson.M{"$gte": first, "$lt": first.AddDate(0, 1, 0)}}
	return s.find(ctx, filter, 0)
}

// ListByCounselor returns a counselor's appointments from a calendar day
// onward. The cutoff is the start of from's day, so a mid-day query still
// includes that day's appointments (dates are stored as local midnight).
func (s *Store) ListByCounselor(ctx context.Context, counselorID primitive.ObjectID, from time.Time, limit int64) ([]models.Appointment, error) {
	filter := bson.M{"counselor_id": counselorID}
	if !from.IsZero() {
		dayStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		filter["date"] = bson.M{"$gte": dayStart}
	}
	return s.find(ctx, filter, limit)
}

// ListByCase returns the appointments linked to a case.
func (s *Store) ListByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Appointment, error) {
	return s.find(ctx, bson.M{"case_id": caseID}, 0)
}

// ListUpcoming returns appointments on or after the given day, soonest
// first, for the dashboard.
func (s *Store) ListUpcoming(ctx context.Context, from time.Time, limit int64) ([]models.Appointment, error) {
	dayStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	return s.find(ctx, bson.M{"date": bson.M{"$gte": dayStart}}, limit)
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "start_time", Value: 1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
