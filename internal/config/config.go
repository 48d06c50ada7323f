package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Fetch configures the batch fetch pipeline.
type Fetch struct {
	BatchSize  int
	BatchDelay time.Duration
	Timeout    time.Duration
	UserAgent  string
}

// Worker holds configuration for the Kafka -> pipeline -> Elasticsearch worker.
type Worker struct {
	Common
	Fetch
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaResultsTopic string
	KafkaConsumer     string
	RedisAddr         string
	DedupeCapacity    int
	DedupeTTL         time.Duration
	QueueCapacity     int
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Fetch
	BindAddr       string
	DefaultPage    int
	MaxPage        int
	RequestTimeout time.Duration
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadFetch builds the pipeline settings from environment variables.
func LoadFetch() (Fetch, error) {
	f := Fetch{
		BatchSize:  getInt("FETCH_BATCH_SIZE", 25),
		BatchDelay: getDuration("FETCH_BATCH_DELAY", "1s"),
		Timeout:    getDuration("FETCH_TIMEOUT", "20s"),
		UserAgent:  getEnv("FETCH_USER_AGENT", "RSS-Feed-Fetcher/1.0"),
	}

	if f.BatchSize <= 0 {
		return Fetch{}, fmt.Errorf("FETCH_BATCH_SIZE must be positive")
	}
	if f.BatchDelay < 0 {
		return Fetch{}, fmt.Errorf("FETCH_BATCH_DELAY cannot be negative")
	}
	if f.Timeout <= 0 {
		return Fetch{}, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	return f, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	fetch, err := LoadFetch()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:            loadCommon(),
		Fetch:             fetch,
		KafkaBrokers:      splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "source_batches"),
		KafkaResultsTopic: getEnv("KAFKA_RESULTS_TOPIC", "article_batches"),
		KafkaConsumer:     getEnv("KAFKA_CONSUMER_GROUP", "article-fetcher"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		DedupeCapacity:    getInt("WORKER_DEDUPE_CAPACITY", 50000),
		DedupeTTL:         getDuration("WORKER_DEDUPE_TTL", "72h"),
		QueueCapacity:     getInt("WORKER_QUEUE_CAPACITY", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.KafkaTopic == c.KafkaResultsTopic {
		return nil, fmt.Errorf("KAFKA_RESULTS_TOPIC must differ from KAFKA_TOPIC")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.QueueCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_QUEUE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	fetch, err := LoadFetch()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:         loadCommon(),
		Fetch:          fetch,
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:    getInt("API_PAGE_SIZE", 20),
		MaxPage:        getInt("API_MAX_PAGE_SIZE", 100),
		RequestTimeout: getDuration("API_REQUEST_TIMEOUT", "5m"),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.RequestTimeout <= 0 {
		return nil, fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
