package container

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/forgeline/qms/cmd/qms/audit"
	"github.com/forgeline/qms/cmd/qms/service"
	"github.com/forgeline/qms/cmd/qms/statemachine"
	"github.com/forgeline/qms/common/bootstrap"
	"github.com/forgeline/qms/common/ratelimit"
	rediscommon "github.com/forgeline/qms/common/redis"
	"github.com/forgeline/qms/common/repository"
	"github.com/forgeline/qms/common/validation"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components  *bootstrap.Components
	Redis       *rediscommon.Client
	RateLimiter *ratelimit.RateLimiter

	// Stores
	RecordStore repository.RecordStore
	AuditStore  repository.AuditStore

	// Engine
	Machine  *statemachine.Machine
	Recorder *audit.Recorder

	// Services
	RecordService      *service.RecordService
	DispositionService *service.DispositionService
	LinkageService     *service.LinkageService
	AttachmentService  *service.AttachmentService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	// Create Redis client (raw), then wrap with the common client for
	// instrumentation
	redisRaw, err := createRedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	redisClient := rediscommon.NewClient(redisRaw, components.Logger)
	rateLimiter := ratelimit.NewRateLimiter(redisRaw, components.Logger)

	// Stores: Postgres in production, memory for dev and tests
	var recordStore repository.RecordStore
	var auditStore repository.AuditStore
	switch cfg.Storage.Backend {
	case "postgres":
		if components.DB == nil {
			return nil, fmt.Errorf("postgres storage backend requires a database connection")
		}
		recordStore = repository.NewRecordRepository(components.DB)
		auditStore = repository.NewAuditRepository(components.DB)
	case "memory":
		recordStore = repository.NewMemoryRecordStore()
		auditStore = repository.NewMemoryAuditStore()
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	recorder := audit.NewRecorder(auditStore, redisClient, components.Logger, cfg.Workflow.AuditStreamEnabled)
	machine := statemachine.NewMachine(cfg.Workflow.RequiredNCRApprovers)
	validator := validation.NewValidator()
	numbers := service.NewNumberGenerator(redisClient)

	recordService := service.NewRecordService(
		recordStore,
		recorder,
		machine,
		validator,
		numbers,
		components.Cache,
		components.Queue,
		components.Logger,
		cfg.Cache.DefaultTTL,
		cfg.Workflow.DefaultMRBQuorum,
	)
	dispositionService := service.NewDispositionService(recordService, cfg.Workflow.RequiredNCRApprovers)
	linkageService := service.NewLinkageService(recordService)
	attachmentService := service.NewAttachmentService(recordService, nil)

	return &Container{
		Components:         components,
		Redis:              redisClient,
		RateLimiter:        rateLimiter,
		RecordStore:        recordStore,
		AuditStore:         auditStore,
		Machine:            machine,
		Recorder:           recorder,
		RecordService:      recordService,
		DispositionService: dispositionService,
		LinkageService:     linkageService,
		AttachmentService:  attachmentService,
	}, nil
}

// createRedisClient creates a Redis client from environment variables
func createRedisClient() (*redis.Client, error) {
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password: redisPassword,
		DB:       0,
	})

	return client, nil
}

// getEnv gets an environment variable or returns a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
