// internal/app/features/activity/handler.go
package activity

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/counselhub/internal/app/features/errors"
	activitystore "github.com/dalemusser/counselhub/internal/app/store/activity"
	"github.com/dalemusser/counselhub/internal/app/system/authz"
	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/paging"
	"github.com/dalemusser/counselhub/internal/app/system/timeouts"
	"github.com/dalemusser/counselhub/internal/app/system/viewdata"
	"github.com/dalemusser/counselhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// entryTypes drives the feed's type filter dropdown.
var entryTypes = []string{
	models.ActivityCaseCreated,
	models.ActivityCaseAssigned,
	models.ActivityCaseStatusChanged,
	models.ActivityNoteAdded,
	models.ActivityReportAdded,
	models.ActivityAppointmentCreated,
}

type Handler struct {
	Log      *zap.Logger
	Activity *activitystore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Activity: activitystore.New(db)}
}

type feedData struct {
	viewdata.BaseVM
	Entries    []models.ActivityEntry
	Types      []string
	TypeFilter string
	Range      paging.Range
	HasPrev    bool
	HasNext    bool
	OwnOnly    bool
}

// ServeFeed handles GET /activity: the newest-first event feed, paged with
// ?start=N. Users without the view-all capability see only events where
// they are the actor.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	entryType := normalize.Status(query.Get(r, "type"))
	start := paging.ParseStart(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		entries []models.ActivityEntry
		err     error
		ownOnly bool
	)
	if authz.RequestCan(r, authz.ActionViewAllActivity) {
		entries, err = h.Activity.ListRecent(ctx, entryType, int64(start-1), paging.LimitPlusOne())
	} else {
		_, _, userID, ok := authz.UserCtx(r)
		if !ok {
			uierrors.RenderUnauthorized(w, r, "/login")
			return
		}
		ownOnly = true
		entries, err = h.Activity.ListByActor(ctx, userID, paging.LimitPlusOne())
	}
	if err != nil {
		h.Log.Error("activity: feed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	hasNext := false
	if len(entries) > paging.PageSize {
		entries = entries[:paging.PageSize]
		hasNext = true
	}
	rng := paging.ComputeRange(start, len(entries))

	templates.Render(w, r, "activity_feed", feedData{
		BaseVM:     viewdata.NewBaseVM(r, "Activity", "/dashboard"),
		Entries:    entries,
		Types:      entryTypes,
		TypeFilter: entryType,
		Range:      rng,
		HasPrev:    start > 1 && !ownOnly,
		HasNext:    hasNext && !ownOnly,
		OwnOnly:    ownOnly,
	})
}
