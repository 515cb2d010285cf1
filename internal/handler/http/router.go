package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
	// UploadsPath is served under /uploads when set.
	UploadsPath string
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	employeeRepo employee.EmployeeRepository,
	attendanceHandler AttendanceHandler,
	regularizationHandler RegularizationHandler,
	analysisHandler AnalysisHandler,
	payrollHandler PayrollHandler,
	holidayHandler HolidayHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.UploadsPath != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsPath))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.ResolveEmployeeProfile(employeeRepo))

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployeeProfile)
					r.With(middleware.RequirePermission(user.ResourceAttendance, user.ActionCreate)).
						Post("/punch", attendanceHandler.Punch)

					r.Route("/me", func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.ResourceAttendance, user.ActionViewOwn))
						r.Get("/today", attendanceHandler.GetToday)
						r.Get("/history", attendanceHandler.GetMyHistory)
					})
				})

				r.With(middleware.RequireAnyPermission(
					user.Permission{Resource: user.ResourceAnalysis, Action: user.ActionViewOwn},
					user.Permission{Resource: user.ResourceAnalysis, Action: user.ActionViewAll},
				)).Get("/analysis", analysisHandler.MonthlySummary)

				r.With(middleware.RequirePermission(user.ResourceAttendance, user.ActionViewAll)).
					Get("/", attendanceHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					// owners may read their own record; the service enforces scope
					r.With(middleware.RequireAnyPermission(
						user.Permission{Resource: user.ResourceAttendance, Action: user.ActionViewOwn},
						user.Permission{Resource: user.ResourceAttendance, Action: user.ActionViewAll},
					)).Get("/", attendanceHandler.Get)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.ResourceAttendance, user.ActionManage))
						r.Patch("/", attendanceHandler.Update)
						r.Delete("/", attendanceHandler.Delete)
					})
				})
			})

			r.Route("/regularizations", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.ResourceRegularization, user.ActionCreate)).
					Post("/", regularizationHandler.Create)
				r.With(middleware.RequireAnyPermission(
					user.Permission{Resource: user.ResourceRegularization, Action: user.ActionViewOwn},
					user.Permission{Resource: user.ResourceRegularization, Action: user.ActionViewAll},
				)).Get("/", regularizationHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", regularizationHandler.Get)
					r.Delete("/", regularizationHandler.Delete)
					r.With(middleware.RequirePermission(user.ResourceRegularization, user.ActionReview)).
						Patch("/status", regularizationHandler.UpdateStatus)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.ResourcePayroll, user.ActionView))
				r.Get("/employees/{id}/attendance", payrollHandler.GetEmployeeAttendance)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.ResourceHoliday, user.ActionView)).
					Get("/", holidayHandler.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.ResourceHoliday, user.ActionManage))
					r.Post("/", holidayHandler.Create)
					r.Delete("/{id}", holidayHandler.Delete)
				})
			})
		})
	})
	return r
}
