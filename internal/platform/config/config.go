package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; every field has a dev default.
type Server struct {
	Addr          string
	JWTSigningKey string
	SignerKey     string

	// PostgresDSN switches the stores to the postgres implementations when
	// non-empty. Empty means in-memory stores.
	PostgresDSN string

	// RedisURL enables the traceability read cache when non-empty.
	RedisURL string

	// KafkaBrokers enables the Kafka append-only log when non-empty. Empty
	// means the in-process log.
	KafkaBrokers []string
	KafkaTopic   string
}

// TraceCacheTTL bounds staleness of cached traceability projections.
var TraceCacheTTL = 30 * time.Second

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("AGRITRUST_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Dev default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	signerKey := os.Getenv("PROOF_SIGNER_KEY")
	if signerKey == "" {
		signerKey = "dev-proof-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_LEDGER_TOPIC")
	if topic == "" {
		topic = "agritrust.ledger"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		SignerKey:     signerKey,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
	}
}
