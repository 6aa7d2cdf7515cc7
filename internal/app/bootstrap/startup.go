// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/counselhub/internal/app/store/oauthstate"
	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.LeaderEmail != "" {
		if err := ensureLeader(ctx, deps, appCfg.LeaderEmail, logger); err != nil {
			return err
		}
	}

	// Sweep expired OAuth state tokens left over from a previous run. The
	// TTL index handles steady-state cleanup; this covers tokens that
	// expired while the server was down and TTL passes were delayed.
	if n, err := oauthstate.New(deps.MongoDatabase).CleanupExpired(ctx); err != nil {
		logger.Warn("oauth state cleanup failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("removed expired oauth state tokens", zap.Int64("count", n))
	}
	return nil
}

// ensureLeader guarantees a leader account for the given email so a fresh
// deployment is not locked out. An existing account is promoted to leader;
// a missing one is created as a Google-auth account (there is no password
// to seed from config).
func ensureLeader(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	users := deps.MongoDatabase.Collection("users")

	var existing models.User
	err := users.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	switch {
	case err == nil:
		if existing.Role == "leader" {
			return nil
		}
		_, err = users.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": bson.M{
			"role":       "leader",
			"updated_at": time.Now(),
		}})
		if err != nil {
			return err
		}
		logger.Info("promoted existing user to leader", zap.String("email", email))
		return nil

	case errors.Is(err, mongo.ErrNoDocuments):
		now := time.Now()
		name := "Leader"
		u := models.User{
			ID:         primitive.NewObjectID(),
			FullName:   name,
			FullNameCI: text.Fold(name),
			Email:      email,
			AuthMethod: "google",
			Role:       "leader",
			Status:     "active",
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := users.InsertOne(ctx, u); err != nil {
			return err
		}
		logger.Info("created leader account", zap.String("email", email))
		return nil

	default:
		return err
	}
}
