package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion        string
	DynamoDBEndpoint string // optional override, e.g. a local DynamoDB

	// Table configuration
	ApiKeysTable      string
	GroupsTable       string
	MembershipsTable  string
	SubscriptionIndex string // api keys by subscription
	PlanIndex         string // api keys by plan
	ReferenceIndex    string // memberships by referenceId + referenceType
	UserIndex         string // memberships by userId + referenceType

	// Eventing and metrics
	EventBusName     string // empty disables lifecycle events
	MetricsNamespace string
	EnableMetrics    bool

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging and features
	LogLevel   string
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),

		ApiKeysTable:      getEnv("APIKEYS_TABLE", "mgmt-apikeys"),
		GroupsTable:       getEnv("GROUPS_TABLE", "mgmt-groups"),
		MembershipsTable:  getEnv("MEMBERSHIPS_TABLE", "mgmt-memberships"),
		SubscriptionIndex: getEnv("APIKEY_SUBSCRIPTION_INDEX", "subscription-index"),
		PlanIndex:         getEnv("APIKEY_PLAN_INDEX", "plan-index"),
		ReferenceIndex:    getEnv("MEMBERSHIP_REFERENCE_INDEX", "reference-index"),
		UserIndex:         getEnv("MEMBERSHIP_USER_INDEX", "user-index"),

		EventBusName:     getEnv("EVENT_BUS_NAME", ""),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "MgmtApi"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", false),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "mgmtapi"),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.ApiKeysTable == "" || c.GroupsTable == "" || c.MembershipsTable == "" {
		return fmt.Errorf("table names must not be empty")
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}
