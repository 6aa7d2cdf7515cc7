// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	activityfeature "github.com/dalemusser/counselhub/internal/app/features/activity"
	appointmentsfeature "github.com/dalemusser/counselhub/internal/app/features/appointments"
	authgooglefeature "github.com/dalemusser/counselhub/internal/app/features/authgoogle"
	calendarfeature "github.com/dalemusser/counselhub/internal/app/features/calendar"
	casesfeature "github.com/dalemusser/counselhub/internal/app/features/cases"
	counselorsfeature "github.com/dalemusser/counselhub/internal/app/features/counselors"
	dashboardfeature "github.com/dalemusser/counselhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/counselhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/counselhub/internal/app/features/health"
	homefeature "github.com/dalemusser/counselhub/internal/app/features/home"
	loginfeature "github.com/dalemusser/counselhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/counselhub/internal/app/features/logout"
	profilefeature "github.com/dalemusser/counselhub/internal/app/features/profile"
	usersfeature "github.com/dalemusser/counselhub/internal/app/features/users"

	// Registers the shared header/footer template set.
	_ "github.com/dalemusser/counselhub/internal/app/features/shared/views"

	activitystore "github.com/dalemusser/counselhub/internal/app/store/activity"
	userstore "github.com/dalemusser/counselhub/internal/app/store/users"
	"github.com/dalemusser/counselhub/internal/app/system/activitylog"
	"github.com/dalemusser/counselhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. CounselHub initializes the template
// engine, applies session and CSRF middleware, and mounts feature routers
// for all application areas: home, login, dashboard, cases, counselors,
// appointments, calendar, activity, and user management.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. Role changes and deactivations take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// The activity logger is shared by every feature that records domain
	// events; its mode comes from config so tests and small deployments
	// can turn the DB half off.
	activityLog := activitylog.New(activitystore.New(deps.MongoDatabase), logger, activitylog.Config{Mode: appCfg.ActivityLog})

	r := chi.NewRouter()

	// CSRF protection for all form posts. Forms carry the token via the
	// gorilla.csrf.Token hidden input rendered by the view models.
	r.Use(csrf.Protect([]byte(appCfg.SessionKey), csrf.Secure(secure), csrf.Path("/")))

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	googleEnabled := appCfg.GoogleClientID != ""
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, googleEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	if googleEnabled {
		googleHandler := authgooglefeature.NewHandler(deps.MongoDatabase, sessionMgr, appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Role-aware dashboard
	dashboardHandler := dashboardfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Counseling cases with their notes and session reports
	casesHandler := casesfeature.NewHandler(deps.MongoDatabase, activityLog, logger)
	r.Mount("/cases", casesfeature.Routes(casesHandler, sessionMgr))

	// Counselor roster and workload
	counselorsHandler := counselorsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/counselors", counselorsfeature.Routes(counselorsHandler, sessionMgr))

	// Appointment scheduling
	appointmentsHandler := appointmentsfeature.NewHandler(deps.MongoDatabase, activityLog, logger)
	r.Mount("/appointments", appointmentsfeature.Routes(appointmentsHandler, sessionMgr))

	calendarHandler := calendarfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/calendar", calendarfeature.Routes(calendarHandler, sessionMgr))

	// Activity feed
	activityHandler := activityfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/activity", activityfeature.Routes(activityHandler, sessionMgr))

	// Account management
	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	return r, nil
}
