// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package changefeed

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config holds the Kafka settings for the change feed.
type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`

	// SASL/SCRAM authentication
	SASLEnabled   bool   `mapstructure:"sasl_enabled"`
	SASLMechanism string `mapstructure:"sasl_mechanism"` // "SCRAM-SHA-256", "SCRAM-SHA-512" or "PLAIN"
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`

	// TLS configuration
	TLSEnabled    bool `mapstructure:"tls_enabled"`
	TLSSkipVerify bool `mapstructure:"tls_skip_verify"`

	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Compression  string        `mapstructure:"compression"`

	// WriteTimeout bounds a single publish.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns a disabled feed with single-message batches.
func DefaultConfig() Config {
	return Config{
		Brokers:       []string{"localhost:9092"},
		Topic:         "settingsmanager.changes",
		SASLMechanism: "SCRAM-SHA-256",
		BatchSize:     1,
		BatchTimeout:  10 * time.Millisecond,
		Compression:   "snappy",
		WriteTimeout:  5 * time.Second,
	}
}

// Validate reports every problem with an enabled configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var result *multierror.Error
	if len(c.Brokers) == 0 {
		result = multierror.Append(result, errors.New("changefeed: at least one broker is required"))
	}
	if c.Topic == "" {
		result = multierror.Append(result, errors.New("changefeed: topic is required"))
	}
	if _, err := c.compression(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.SASLEnabled {
		if _, err := c.saslMechanism(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (c Config) compression() (kafka.Compression, error) {
	switch strings.ToLower(c.Compression) {
	case "", "none", "uncompressed":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("changefeed: unsupported compression: %s", c.Compression)
	}
}

func (c Config) saslMechanism() (sasl.Mechanism, error) {
	switch c.SASLMechanism {
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.SASLUsername, c.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.SASLUsername, c.SASLPassword)
	case "PLAIN":
		return plain.Mechanism{
			Username: c.SASLUsername,
			Password: c.SASLPassword,
		}, nil
	default:
		return nil, fmt.Errorf("changefeed: unsupported SASL mechanism: %s", c.SASLMechanism)
	}
}

// Transport builds a kafka.Transport with SASL and TLS applied.
func (c Config) Transport() (*kafka.Transport, error) {
	transport := &kafka.Transport{}
	if c.SASLEnabled {
		mechanism, err := c.saslMechanism()
		if err != nil {
			return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
		transport.SASL = mechanism
	}
	if c.TLSEnabled {
		transport.TLS = &tls.Config{
			InsecureSkipVerify: c.TLSSkipVerify,
		}
	}
	return transport, nil
}

// NewWriter builds the kafka.Writer used by a Feed.
func NewWriter(c Config) (*kafka.Writer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	compression, err := c.compression()
	if err != nil {
		return nil, err
	}
	transport, err := c.Transport()
	if err != nil {
		return nil, err
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              c.BatchSize,
		BatchTimeout:           c.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		Compression:            compression,
		Transport:              transport,
		AllowAutoTopicCreation: false,
	}, nil
}
