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

// Package cloudstorage stores records as JSON objects in S3, GCS (through
// its S3 interoperability endpoint), Azure Blob Storage or a local
// directory.
package cloudstorage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
)

// Client is the object API shared by every provider.
type Client interface {
	// GetObject returns the object body, or notFound when it does not exist.
	GetObject(ctx context.Context, bucket, key string) (data []byte, notFound bool, err error)

	// PutObject creates or replaces an object.
	PutObject(ctx context.Context, bucket, key string, data []byte) error

	// DeleteObject removes an object. Missing objects are not an error.
	DeleteObject(ctx context.Context, bucket, key string) error

	// ListObjects returns the names of all objects under prefix.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

const (
	ProviderAWS   = "aws"
	ProviderGCP   = "gcp"
	ProviderAzure = "azure"
	ProviderFile  = "file"
)

// Config selects and configures an object store.
type Config struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`

	// S3 and GCS
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	Role         string `mapstructure:"role"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	InsecureTLS  bool   `mapstructure:"insecure_tls"`

	// Azure
	StorageAccount string `mapstructure:"storage_account"`

	// Local directory for the file provider
	Root string `mapstructure:"root"`
}

var tracer = otel.Tracer("github.com/cardinalhq/settingsmanager/internal/cloudstorage")

// NewClient builds the client for cfg.Provider. An empty provider means AWS.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderAWS, ProviderGCP, "":
		return newS3Client(ctx, cfg)
	case ProviderAzure:
		return newAzureClient(cfg)
	case ProviderFile:
		if cfg.Root == "" {
			return nil, fmt.Errorf("file provider requires a root directory")
		}
		return NewFileClient(cfg.Root), nil
	default:
		return nil, fmt.Errorf("unsupported cloud provider: %s", cfg.Provider)
	}
}
