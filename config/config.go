package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds everything the tasks service reads from the environment.
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8002"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	LogFile  string `env:"LOG_FILE" envDefault:"/app/logs/tasks.log"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string `env:"JWT_SECRET,required"`

	// StoreBackend is "mongo" or "memory"; memory keeps everything in process and is meant for local runs.
	StoreBackend            string `env:"STORE_BACKEND" envDefault:"mongo"`
	MongoURI                string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName             string `env:"MONGO_DB_NAME" envDefault:"tasks_db"`
	TasksCollection         string `env:"MONGO_COLLECTION" envDefault:"tasks"`
	UsersCollection         string `env:"MONGO_USERS_COLLECTION" envDefault:"users"`
	NotificationsCollection string `env:"MONGO_NOTIFICATIONS_COLLECTION" envDefault:"notifications"`

	// NotificationsBackend is "mongo" or "cassandra".
	NotificationsBackend string `env:"NOTIFICATIONS_BACKEND" envDefault:"mongo"`
	CassandraHosts       string `env:"CASS_DB" envDefault:"127.0.0.1"`

	UploadsDir string `env:"UPLOADS_DIR" envDefault:"uploads"`

	ReminderSchedule string `env:"REMINDER_SCHEDULE" envDefault:"0 0 * * *"`
	ReminderTimezone string `env:"REMINDER_TIMEZONE" envDefault:"Local"`

	// ClassifierMode is "http" or "command".
	ClassifierMode    string        `env:"CLASSIFIER_MODE" envDefault:"http"`
	ClassifierURL     string        `env:"CLASSIFIER_URL" envDefault:"http://reminder-classifier:5001"`
	ClassifierPython  string        `env:"CLASSIFIER_PYTHON" envDefault:"python"`
	ClassifierScript  string        `env:"CLASSIFIER_SCRIPT" envDefault:"models/ml/predict_reminder.py"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// A missing .env is fine; real deployments pass plain environment variables.
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be mongo or memory, got %q", c.StoreBackend)
	}
	switch c.NotificationsBackend {
	case "mongo", "cassandra":
	default:
		return fmt.Errorf("NOTIFICATIONS_BACKEND must be mongo or cassandra, got %q", c.NotificationsBackend)
	}
	switch c.ClassifierMode {
	case "http", "command":
	default:
		return fmt.Errorf("CLASSIFIER_MODE must be http or command, got %q", c.ClassifierMode)
	}
	if _, err := time.LoadLocation(c.ReminderTimezone); err != nil {
		return fmt.Errorf("invalid REMINDER_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the time zone the reminder schedule is evaluated in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}
