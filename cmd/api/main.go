package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tanahub/timeclock/internal/config"
	appHTTP "github.com/tanahub/timeclock/internal/handler/http"
	"github.com/tanahub/timeclock/internal/pkg/cron"
	"github.com/tanahub/timeclock/internal/pkg/database"
	"github.com/tanahub/timeclock/internal/pkg/jwt"
	"github.com/tanahub/timeclock/internal/pkg/oauth"
	"github.com/tanahub/timeclock/internal/repository/postgresql"
	attendanceService "github.com/tanahub/timeclock/internal/service/attendance"
	authService "github.com/tanahub/timeclock/internal/service/auth"
	shiftService "github.com/tanahub/timeclock/internal/service/shift"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(dsn, cfg.Database.MigrationsDir); err != nil {
			fmt.Println("Error running migrations:", err)
			return
		}
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Pool.Close()

	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	googleService := oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)

	authSvc := authService.NewAuthService(userRepo, employeeRepo, jwtService, googleService)
	attendanceSvc := attendanceService.NewAttendanceService(db, attendanceRepo, employeeRepo, shiftRepo)
	shiftSvc := shiftService.NewShiftService(shiftRepo, employeeRepo)

	authHandler := appHTTP.NewAuthHandler(authSvc, jwtService, googleService)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	shiftHandler := appHTTP.NewShiftHandler(shiftSvc)

	router := appHTTP.NewRouter(
		jwtService,
		authHandler,
		attendanceHandler,
		shiftHandler,
		cfg.App.Env,
	)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo, employeeRepo, shiftRepo).RegisterJobs(scheduler)
	scheduler.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		scheduler.Stop()
		os.Exit(0)
	}()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("Server starting", "port", cfg.App.Port, "env", cfg.App.Env)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
