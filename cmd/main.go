package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/actionstore"
	"maitred/internal/api"
	"maitred/internal/commands"
	"maitred/internal/database"
	"maitred/internal/engine"
	"maitred/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"gopkg.in/yaml.v3"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

// Config represents the application configuration
type Config struct {
	Database struct {
		Dialect string `yaml:"dialect"`
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`
	LLM struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"llm"`
	JWTSecret string `yaml:"jwt_secret"`
	// Durations are configured as plain integers; yaml.v3 has no native
	// duration parsing.
	ActionTTLMinutes       int           `yaml:"action_ttl_minutes"`
	AITimeoutSeconds       int           `yaml:"ai_timeout_seconds"`
	RecentOrderWindowHours int           `yaml:"recent_order_window_hours"`
	Engine                 engine.Config `yaml:"engine"`
}

// ActionTTL returns the configured pending-action lifetime
func (c *Config) ActionTTL() time.Duration {
	if c.ActionTTLMinutes <= 0 {
		return actionstore.DefaultTTL
	}
	return time.Duration(c.ActionTTLMinutes) * time.Minute
}

func main() {
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	model, err := initializeLLM(config)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}

	if err := database.InitDB(config.Database.Dialect, config.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.SeedDemoData(db); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	collector := monitoring.NewCollector()
	store := database.NewGormStore(db)
	eng := engine.New(store, model, config.Engine, engine.WithUsageTracker(collector))

	actions := actionstore.New(config.ActionTTL())
	defer actions.Stop()

	committer := commands.NewCommitter(db)
	server := api.NewWaiterAPI(eng, actions, committer, db, config.JWTSecret)

	go startMetricsServer(*metricsPort, collector)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", *port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func loadConfig(path string) (*Config, error) {
	config := &Config{
		Engine: engine.DefaultConfig(),
	}
	config.Database.Dialect = "sqlite3"
	config.Database.DSN = "maitred.db"
	config.LLM.Model = "gpt-4o-mini"
	config.JWTSecret = os.Getenv("JWT_SECRET")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", path)
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.AITimeoutSeconds > 0 {
		config.Engine.AITimeout = time.Duration(config.AITimeoutSeconds) * time.Second
	}
	if config.RecentOrderWindowHours > 0 {
		config.Engine.RecentOrderWindow = time.Duration(config.RecentOrderWindowHours) * time.Hour
	}
	return config, nil
}

func initializeLLM(config *Config) (llms.Model, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []openai.Option{
		openai.WithModel(config.LLM.Model),
		openai.WithToken(apiKey),
	}
	if config.LLM.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.LLM.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return llm, nil
}

func startMetricsServer(port int, collector *monitoring.Collector) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
