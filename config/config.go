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

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/cardinalhq/settingsmanager/internal/adminapi"
	"github.com/cardinalhq/settingsmanager/internal/changefeed"
	"github.com/cardinalhq/settingsmanager/internal/cloudstorage"
	"github.com/cardinalhq/settingsmanager/internal/debugging"
	"github.com/cardinalhq/settingsmanager/internal/healthcheck"
	"github.com/cardinalhq/settingsmanager/internal/redisstore"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendObject   = "object"
)

// Config aggregates configuration for the application.
// Each section is owned by the package that consumes it.
type Config struct {
	Storage    StorageConfig      `mapstructure:"storage"`
	Cipher     CipherConfig       `mapstructure:"cipher"`
	Changefeed changefeed.Config  `mapstructure:"changefeed"`
	Admin      adminapi.Config    `mapstructure:"admin"`
	Health     healthcheck.Config `mapstructure:"health"`
	Pprof      debugging.Config   `mapstructure:"pprof"`
	Debug      bool               `mapstructure:"debug"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Instrument wraps the backend with tracing and metrics.
	Instrument bool                `mapstructure:"instrument"`
	SQLite     SQLiteConfig        `mapstructure:"sqlite"`
	Redis      RedisConfig         `mapstructure:"redis"`
	Object     cloudstorage.Config `mapstructure:"object"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendPostgres,
			Instrument: true,
			SQLite:     SQLiteConfig{Path: "settings.db"},
			Redis:      RedisConfig{Prefix: redisstore.DefaultPrefix},
			Object:     cloudstorage.Config{Provider: cloudstorage.ProviderAWS, Prefix: "settings"},
		},
		Cipher:     CipherConfig{Algorithm: "aes-gcm"},
		Changefeed: changefeed.DefaultConfig(),
		Admin:      adminapi.DefaultConfig(),
		Health:     healthcheck.DefaultConfig(),
	}
}

// Load reads configuration from an optional file and environment variables.
// Environment variables use the prefix "SETTINGS" and the dot character in
// keys is replaced by an underscore. For example, "storage.redis.url"
// becomes "SETTINGS_STORAGE_REDIS_URL". An empty path looks for
// settingsmanager.yaml in the working directory and ignores its absence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settingsmanager")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SETTINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if b := v.GetString("changefeed.brokers"); b != "" && !strings.HasPrefix(b, "[") {
		cfg.Changefeed.Brokers = strings.Split(b, ",")
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres:
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = multierror.Append(errs, errors.New("storage.sqlite.path is required"))
		}
	case BackendRedis:
		if c.Storage.Redis.URL == "" {
			errs = multierror.Append(errs, errors.New("storage.redis.url is required"))
		}
	case BackendObject:
		switch c.Storage.Object.Provider {
		case cloudstorage.ProviderFile:
			if c.Storage.Object.Root == "" {
				errs = multierror.Append(errs, errors.New("storage.object.root is required for the file provider"))
			}
		case cloudstorage.ProviderAzure:
			if c.Storage.Object.StorageAccount == "" {
				errs = multierror.Append(errs, errors.New("storage.object.storage_account is required for azure"))
			}
			if c.Storage.Object.Bucket == "" {
				errs = multierror.Append(errs, errors.New("storage.object.bucket is required"))
			}
		default:
			if c.Storage.Object.Bucket == "" {
				errs = multierror.Append(errs, errors.New("storage.object.bucket is required"))
			}
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	if err := c.Cipher.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.Changefeed.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
