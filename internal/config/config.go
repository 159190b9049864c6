package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort     string `envconfig:"HTTP_PORT" default:"8080"`
	DBString     string `envconfig:"DB_STRING" default:""`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"order-outcomes"`
	IntakeTopic  string `envconfig:"KAFKA_INTAKE_TOPIC" default:"order-submissions"`
	IntakeGroup  string `envconfig:"KAFKA_INTAKE_GROUP" default:"order-intake"`
	IntakeDLQ    string `envconfig:"KAFKA_INTAKE_DLQ_TOPIC" default:"order-submissions-dlq"`

	// RequireContact rejects orders without customer contact info as
	// fraud-adjacent. Business rule, expected to change.
	RequireContact bool `envconfig:"FRAUD_REQUIRE_CONTACT" default:"true"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
