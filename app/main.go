package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"somplus/config"
	"somplus/domain"
	"somplus/services/monitor/delivery"
	"somplus/services/monitor/repository"
	"somplus/services/monitor/usecase"
)

var log *logrus.Logger
var wg sync.WaitGroup

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Fatalf("Error loading .env file")
	}

	log = config.GetLogrusInstance()

	startMonitor()
}

func startMonitor() {
	log.Info("Starting SomPlus")

	db, err := config.BootDB()
	if err != nil {
		log.Fatal("Failed to boot DB")
		return
	}

	clientID, err := config.GetSomtodayClientID()
	if err != nil {
		log.Fatalf("Failed to read Somtoday credentials: %v", err)
		return
	}

	opsToken, err := config.GetOpsToken()
	if err != nil {
		log.Fatalf("Failed to read ops token: %v", err)
		return
	}

	windows, err := config.GetSleepSchedule()
	if err != nil {
		log.Fatalf("Failed to read scheduler windows: %v", err)
		return
	}

	// Repos and usecase
	api := repository.NewSomtodayAPI(
		config.GetSomtodayAPIBase(),
		config.GetSomtodayTokenURL(),
		*clientID,
		config.GetSomtodayPageSize(),
		config.GetSomtodayTimeout(),
	)
	snapshotRepo := repository.NewSnapshotRepository(db)
	userRepo := repository.NewUserRepository(db)
	digestRepo := repository.NewErrorDigestRepository(db)

	notifiers := []domain.Notifier{
		delivery.NewDiscordNotifier(log),
		delivery.NewPushsaferNotifier(log),
	}
	if config.WhatsappEnabled() {
		meowClient, err := config.InitMeow()
		if err != nil {
			log.Fatalf("Failed to init WhatsApp client: %v", err)
			return
		}
		notifiers = append(notifiers, delivery.NewWhatsappNotifier(meowClient, log))
	}

	errs := usecase.NewErrorAggregator(digestRepo, log)
	monitorUC := usecase.NewMonitorUseCase(api, snapshotRepo, userRepo, notifiers, errs, log)

	// Ops API
	app := fiber.New(config.GetFiberConfig())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	trigger := make(chan struct{}, 1)
	delivery.NewMonitorDelivery(app, monitorUC, *opsToken, trigger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server on port %s", config.GetFiberHttpPort())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())

	wg.Add(1)
	go func() {
		defer wg.Done()
		runLoop(ctx, monitorUC, windows, trigger)
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, os.Kill)

	<-signalChan

	log.Info("Shutting down the server...")
	cancel()

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
}

// runLoop runs cycles forever, sleeping per the time-of-day window
// between them. A send on trigger cuts the sleep short.
func runLoop(ctx context.Context, uc domain.MonitorUseCase, windows []config.SleepWindow, trigger <-chan struct{}) {
	cycle := 0
	for {
		cycle++
		log.WithField("cycle", cycle).Info("Running monitor cycle")

		if err := uc.RunCycle(ctx); err != nil {
			log.WithError(err).Error("Monitor cycle failed")
		}

		if err := config.RotateLogs(config.GetLogRetentionDays()); err != nil {
			log.WithError(err).Warn("Log rotation failed")
		}

		interval := config.CurrentSleepInterval(windows, time.Now())
		log.WithField("sleep", interval.String()).Info("Cycle complete, sleeping")

		select {
		case <-ctx.Done():
			return
		case <-trigger:
			log.Info("Cycle triggered via ops API")
		case <-time.After(interval):
		}
	}
}
