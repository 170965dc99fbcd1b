package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "claimguard/pkg/platform/strings"
)

// Server captures process level configuration read from the environment.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	// MetricsToken, when set, is required in X-Admin-Token to read /metrics.
	MetricsToken  string
	RulesFile     string
	PolicySeed    string
	Database      Database
	Redis         Redis
	Kafka         Kafka
	Vision        Vision
	Audit         Audit
}

// Database configures the PostgreSQL handle. An empty URL selects the
// in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis configures the shared policy cache. An empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PolicyTTL    time.Duration
}

// Kafka configures the audit topic. No brokers disables the Kafka sink.
type Kafka struct {
	Brokers           []string
	Topic             string
	ConsumerGroup     string
	Partitions        int32
	ReplicationFactor int16
}

// Vision configures the HTTP assessment provider. An empty URL selects the
// static provider.
type Vision struct {
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Audit configures the buffered publisher in front of the audit stores.
type Audit struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultAuditTopic carries JSON audit entries keyed by claim ID.
const DefaultAuditTopic = "claimguard.audit"

// FromEnv builds the Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; production deployments set JWT_SIGNING_KEY.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          getEnv("CLAIMGUARD_ADDR", ":8080"),
		Environment:   getEnv("CLAIMGUARD_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSigningKey: jwtSigningKey,
		MetricsToken:  os.Getenv("METRICS_TOKEN"),
		RulesFile:     os.Getenv("CLAIMGUARD_RULES_FILE"),
		PolicySeed:    os.Getenv("CLAIMGUARD_POLICY_SEED"),
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PolicyTTL:    getDuration("REDIS_POLICY_TTL", 10*time.Minute),
		},
		Kafka: Kafka{
			Brokers:           pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:             getEnv("KAFKA_AUDIT_TOPIC", DefaultAuditTopic),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "claimguard-audit-materializer"),
			Partitions:        int32(getInt("KAFKA_AUDIT_PARTITIONS", 3)),
			ReplicationFactor: int16(getInt("KAFKA_AUDIT_REPLICATION", 1)),
		},
		Vision: Vision{
			URL:               os.Getenv("VISION_URL"),
			Timeout:           getDuration("VISION_TIMEOUT", 2*time.Second),
			RequestsPerSecond: getFloat("VISION_RPS", 20),
			Burst:             getInt("VISION_BURST", 5),
		},
		Audit: Audit{
			BufferSize:    getInt("AUDIT_BUFFER_SIZE", 10000),
			BatchSize:     getInt("AUDIT_BATCH_SIZE", 100),
			FlushInterval: getDuration("AUDIT_FLUSH_INTERVAL", 500*time.Millisecond),
		},
	}
}

// IsProduction gates development conveniences like the default signing key.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

