package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskify-project/microservices/tasks-service/classifier"
	"taskify-project/microservices/tasks-service/config"
	"taskify-project/microservices/tasks-service/handlers"
	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/middleware"
	"taskify-project/microservices/tasks-service/repositories"
	"taskify-project/microservices/tasks-service/scheduler"
	"taskify-project/microservices/tasks-service/services"
	"taskify-project/microservices/tasks-service/storage"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

type stores struct {
	tasks         repositories.TaskStore
	accounts      repositories.AccountDirectory
	notifications repositories.NotificationStore
	close         func()
}

func connectMongo(cfg *config.Config) (*stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("database connection for MongoDB failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("MongoDB connection ping error: %w", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.MongoURI)

	db := client.Database(cfg.MongoDBName)
	taskRepo := repositories.NewTaskRepo(db.Collection(cfg.TasksCollection))
	if err := taskRepo.CreateIndexes(ctx); err != nil {
		return nil, err
	}
	notificationRepo := repositories.NewNotificationRepo(db.Collection(cfg.NotificationsCollection))
	if err := notificationRepo.CreateIndexes(ctx); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: DB_COLLECTION_SET, Description: Using MongoDB collections %s/%s, %s, %s",
		cfg.MongoDBName, cfg.TasksCollection, cfg.UsersCollection, cfg.NotificationsCollection)

	return &stores{
		tasks:         taskRepo,
		accounts:      repositories.NewAccountRepo(db.Collection(cfg.UsersCollection)),
		notifications: notificationRepo,
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logging.Logger.Warnf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
			}
		},
	}, nil
}

func openStores(cfg *config.Config) (*stores, error) {
	var s *stores
	if cfg.StoreBackend == "memory" {
		logging.Logger.Warn("Event ID: MEMORY_STORE, Description: Using in-memory stores, data is lost on restart")
		s = &stores{
			tasks:         repositories.NewMemoryTaskRepo(),
			accounts:      repositories.NewMemoryAccountDirectory(),
			notifications: repositories.NewMemoryNotificationRepo(),
			close:         func() {},
		}
	} else {
		var err error
		if s, err = connectMongo(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.NotificationsBackend == "cassandra" {
		cassandra, err := repositories.NewCassandraNotificationRepo(cfg.CassandraHosts, logging.Logger)
		if err != nil {
			s.close()
			return nil, err
		}
		if err := cassandra.CreateTable(); err != nil {
			cassandra.CloseSession()
			s.close()
			return nil, err
		}
		closeMain := s.close
		s.notifications = cassandra
		s.close = func() {
			cassandra.CloseSession()
			closeMain()
		}
	}
	return s, nil
}

func newClassifier(cfg *config.Config) classifier.Classifier {
	if cfg.ClassifierMode == "command" {
		return classifier.NewCommandClassifier(cfg.ClassifierPython, cfg.ClassifierScript, cfg.ClassifierTimeout)
	}
	return classifier.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout, newBreaker("classifier-cb", 30*time.Second))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogFile, cfg.LogLevel)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")

	st, err := openStores(cfg)
	if err != nil {
		logging.Logger.Fatalf("Event ID: STORE_INIT_FAILED, Description: %v", err)
	}
	defer st.close()

	files, err := storage.NewDiskStorage(cfg.UploadsDir)
	if err != nil {
		logging.Logger.Fatalf("Event ID: STORAGE_INIT_FAILED, Description: %v", err)
	}

	notifier := services.NewNotificationService(st.notifications, newBreaker("notifications-cb", 5*time.Second))
	taskService := services.NewTaskService(st.tasks, st.accounts, notifier, files)
	assetService := services.NewAssetService(st.tasks, files)
	dashboardService := services.NewDashboardService(st.tasks, st.accounts)

	reminders, err := scheduler.NewReminderScheduler(cfg.ReminderSchedule, cfg.Location(), st.tasks, newClassifier(cfg), notifier, cfg.ClassifierTimeout)
	if err != nil {
		logging.Logger.Fatalf("Event ID: SCHEDULER_INIT_FAILED, Description: %v", err)
	}

	router := handlers.NewRouter(
		middleware.NewAuthenticator(cfg.JWTSecret),
		handlers.NewTaskHandler(taskService, dashboardService),
		handlers.NewAssetHandler(assetService),
		handlers.NewNotificationHandler(notifier),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           middleware.EnableCORS(cfg.CORSOrigin)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reminders.Start()
	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Event ID: SERVICE_STOPPING, Description: Shutting down Tasks Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
	select {
	case <-reminders.Stop().Done():
	case <-shutdownCtx.Done():
		logging.Logger.Warn("Event ID: SCHEDULER_STOP_TIMEOUT, Description: Reminder sweep still running at shutdown")
	}
}
