// Package workload classifies counselors by their active case count and
// keeps the denormalized per-counselor cache in sync.
//
// The live cases collection is the source of truth; counselors carry
// active_cases and workload fields purely so lists and dashboards render
// without a per-row count query. Recompute refreshes that cache after any
// assignment or status change.
package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/counselhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Band is a workload classification.
type Band string

const (
	Low      Band = "low"      // fewer than 2 active cases
	Moderate Band = "moderate" // exactly 2
	High     Band = "high"     // 3 or more
)

// Classify maps an active case count onto a band.
func Classify(activeCases int) Band {
	switch {
	case activeCases >= 3:
		return High
	case activeCases == 2:
		return Moderate
	default:
		return Low
	}
}

// CountActive returns the number of active cases assigned to the counselor.
func CountActive(ctx context.Context, db *mongo.Database, counselorID primitive.ObjectID) (int, error) {
	n, err := db.Collection("cases").CountDocuments(ctx, bson.M{
		"counselor_id": counselorID,
		"status":       models.CaseActive,
	})
	if err != nil {
		return 0, fmt.Errorf("count active cases: %w", err)
	}
	return int(n), nil
}

// Recompute recounts the counselor's active cases and writes the cached
// active_cases / workload pair back onto the counselor document. It is
// idempotent and safe to call after every assignment or status change.
func Recompute(ctx context.Context, db *mongo.Database, counselorID primitive.ObjectID) (int, Band, error) {
	n, err := CountActive(ctx, db, counselorID)
	if err != nil {
		return 0, "", err
	}
	band := Classify(n)

	_, err = db.Collection("counselors").UpdateByID(ctx, counselorID, bson.M{
		"$set": bson.M{
			"active_cases": n,
			"workload":     string(band),
			"updated_at":   time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, "", fmt.Errorf("update counselor workload cache: %w", err)
	}
	return n, band, nil
}
