// Package config loads service settings from .env, an optional YAML file and
// the environment. Environment keys are the dotted keys upper-cased with "."
// replaced by "_" (rabbitmq.host -> RABBITMQ_HOST).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

type InfluxConfig struct {
	Enabled       bool
	URL           string
	Token         string
	Org           string
	Bucket        string
	Measurement   string
	BatchSize     int
	FlushInterval time.Duration
}

type Config struct {
	HTTPPort     int
	GRPCPort     int
	ArtifactsDir string
	DatasetPath  string

	LogLevel  string
	LogFormat string

	MQTTEnabled      bool
	Rabbit           rabbitmq.RabbitMQConfig
	IngestTopics     []string
	EventTopicPrefix string
	DedupTTL         time.Duration
	DedupMax         int

	Influx InfluxConfig

	BreakerTimeout time.Duration
	ReadinessGrace time.Duration
	RequestTimeout time.Duration
}

// SetDefaults registers every key so that AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("artifacts.dir", "artifacts")
	v.SetDefault("dataset.path", "farmer_advisor_dataset.csv")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 1883)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.client_id", "advisor-service")
	v.SetDefault("ingest.topics", "farm/observation/#")
	v.SetDefault("event.topic_prefix", "event/sustainability")
	v.SetDefault("dedup.ttl", "10m")
	v.SetDefault("dedup.max", 20000)

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "sdcc")
	v.SetDefault("influx.bucket", "advisor")
	v.SetDefault("influx.measurement", "sustainability_prediction")
	v.SetDefault("influx.batch_size", 10)
	v.SetDefault("influx.flush_interval", "1s")

	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("readiness.grace", "5s")
	v.SetDefault("request.timeout", "30s")
}

// NewViper builds the settings source. A missing .env is not an error; a
// missing explicit config file is.
func NewViper(cfgFile string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return v, nil
}

// Load resolves and validates the typed configuration.
func Load(v *viper.Viper) (Config, error) {
	host, _ := os.Hostname()
	clientID := v.GetString("rabbitmq.client_id")
	if host != "" && clientID == "advisor-service" {
		clientID = clientID + "-" + host
	}
	cfg := Config{
		HTTPPort:     v.GetInt("http.port"),
		GRPCPort:     v.GetInt("grpc.port"),
		ArtifactsDir: v.GetString("artifacts.dir"),
		DatasetPath:  v.GetString("dataset.path"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),

		MQTTEnabled: v.GetBool("mqtt.enabled"),
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     v.GetString("rabbitmq.host"),
			Port:     v.GetInt("rabbitmq.port"),
			User:     v.GetString("rabbitmq.user"),
			Password: v.GetString("rabbitmq.password"),
			ClientID: clientID,
		},
		IngestTopics:     list(v, "ingest.topics"),
		EventTopicPrefix: strings.TrimSuffix(v.GetString("event.topic_prefix"), "/"),
		DedupTTL:         v.GetDuration("dedup.ttl"),
		DedupMax:         v.GetInt("dedup.max"),

		Influx: InfluxConfig{
			Enabled:       v.GetBool("influx.enabled"),
			URL:           v.GetString("influx.url"),
			Token:         v.GetString("influx.token"),
			Org:           v.GetString("influx.org"),
			Bucket:        v.GetString("influx.bucket"),
			Measurement:   v.GetString("influx.measurement"),
			BatchSize:     v.GetInt("influx.batch_size"),
			FlushInterval: v.GetDuration("influx.flush_interval"),
		},

		BreakerTimeout: v.GetDuration("breaker.timeout"),
		ReadinessGrace: v.GetDuration("readiness.grace"),
		RequestTimeout: v.GetDuration("request.timeout"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTPPort))
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("grpc.port %d out of range", c.GRPCPort))
	}
	if c.ArtifactsDir == "" {
		errs = append(errs, errors.New("artifacts.dir is empty"))
	}
	if c.MQTTEnabled && len(c.IngestTopics) == 0 {
		errs = append(errs, errors.New("mqtt enabled without ingest.topics"))
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Bucket == "") {
		errs = append(errs, errors.New("influx enabled without url or bucket"))
	}
	return errors.Join(errs...)
}

// list accepts both a YAML sequence and a comma separated env value.
func list(v *viper.Viper, key string) []string {
	var parts []string
	switch v.Get(key).(type) {
	case []interface{}, []string:
		parts = v.GetStringSlice(key)
	default:
		parts = strings.Split(v.GetString(key), ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
