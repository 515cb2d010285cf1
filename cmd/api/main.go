package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/cache"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	analysisService "github.com/cmlabs-hris/attendance-engine/internal/service/analysis"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
	holidayService "github.com/cmlabs-hris/attendance-engine/internal/service/holiday"
	payrollService "github.com/cmlabs-hris/attendance-engine/internal/service/payroll"
	regularizationService "github.com/cmlabs-hris/attendance-engine/internal/service/regularization"
)

const (
	appName    = "attendance-engine"
	appVersion = "v1.0.0"
)

type repositories struct {
	transactor     database.Transactor
	attendance     attendance.AttendanceRepository
	regularization regularization.RegularizationRepository
	holiday        holiday.HolidayRepository
	employee       employee.EmployeeRepository
	centre         centre.CentreRepository
	close          func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.LogLevel})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", cfg.App.Env),
	))
	response.SetExposeInternalErrors(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	repos, err := newRepositories(ctx, cfg, JWTService)
	if err != nil {
		return err
	}
	defer repos.close()

	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("error connecting to redis: %w", err)
		}
		defer redisClient.Close()
		repos.holiday = cache.NewHolidayRepository(repos.holiday, redisClient, cfg.Redis.HolidayTTL)
		slog.Info("Holiday cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.HolidayTTL)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}
	fileService := file.NewFileService(fileStorage)

	attendanceSvc := attendanceService.NewAttendanceService(
		repos.attendance,
		repos.employee,
		repos.centre,
		repos.holiday,
		cfg.Attendance.GeofenceRadiusMeters,
	)
	regularizationSvc := regularizationService.NewRegularizationService(
		repos.transactor,
		repos.regularization,
		repos.attendance,
		repos.employee,
		fileService,
		cfg.Attendance.RegularizationDefaultHours,
	)
	analysisSvc := analysisService.NewAnalysisService(repos.attendance, repos.employee, repos.holiday)
	payrollSvc := payrollService.NewPayrollService(repos.attendance, repos.employee)
	holidaySvc := holidayService.NewHolidayService(repos.holiday)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, cfg.Attendance).RegisterJobs(scheduler)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cron scheduler: %w", err)
	}
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AppName:        appName,
			Version:        appVersion,
			Env:            cfg.App.Env,
			LogLevel:       cfg.App.LogLevel,
			AllowedOrigins: cfg.App.AllowedOrigins,
			UploadsPath:    cfg.Storage.BasePath,
		},
		JWTService,
		repos.employee,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewRegularizationHandler(regularizationSvc),
		appHTTP.NewAnalysisHandler(analysisSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewHolidayHandler(holidaySvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Database.Driver)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRepositories(ctx context.Context, cfg *config.Config, JWTService jwt.Service) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		repos := &repositories{
			transactor:     memory.NewTransactor(store),
			attendance:     memory.NewAttendanceRepository(store),
			regularization: memory.NewRegularizationRepository(store),
			holiday:        memory.NewHolidayRepository(store),
			employee:       memory.NewEmployeeRepository(store),
			centre:         memory.NewCentreRepository(store),
			close:          func() {},
		}

		actors, err := fixtures.SeedDemo(ctx, store, repos.holiday, time.Now().UTC().Year())
		if err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		if cfg.IsDevelopment() {
			for role, actor := range actors {
				token, _, err := JWTService.GenerateAccessToken(actor)
				if err != nil {
					return nil, fmt.Errorf("failed to mint demo token: %w", err)
				}
				slog.Info("Demo access token", "role", role, "employee_id", actor.EmployeeID, "token", token)
			}
		}
		slog.Warn("Using in-memory store; data is lost on restart")
		return repos, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		return &repositories{
			transactor:     postgresql.NewTransactor(db),
			attendance:     postgresql.NewAttendanceRepository(db),
			regularization: postgresql.NewRegularizationRepository(db),
			holiday:        postgresql.NewHolidayRepository(db),
			employee:       postgresql.NewEmployeeRepository(db),
			centre:         postgresql.NewCentreRepository(db),
			close:          db.Close,
		}, nil
	}
}
