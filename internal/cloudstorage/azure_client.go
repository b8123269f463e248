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

package cloudstorage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// azureAPI is the part of *azblob.Client used here. Buckets map to
// containers.
type azureAPI interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error)
	NewListBlobsFlatPager(containerName string, o *azblob.ListBlobsFlatOptions) *runtime.Pager[azblob.ListBlobsFlatResponse]
}

type azureClient struct {
	api azureAPI
}

func newAzureClient(cfg Config) (*azureClient, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.StorageAccount == "" {
			return nil, fmt.Errorf("azure provider requires a storage account or endpoint")
		}
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.StorageAccount)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	client, err := azblob.NewClient(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &azureClient{api: client}, nil
}

func (c *azureClient) GetObject(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "cloudstorage.azureGetObject",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("key", key),
		),
	)
	defer span.End()

	resp, err := c.api.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, true, nil
		}
		recordError(ctx, ProviderAzure, "get", "unknown")
		span.RecordError(err)
		return nil, false, fmt.Errorf("download blob %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		recordError(ctx, ProviderAzure, "get", "copy_failed")
		return nil, false, fmt.Errorf("copy blob content: %w", err)
	}
	recordGet(ctx, ProviderAzure, len(data))
	return data, false, nil
}

func (c *azureClient) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	ctx, span := tracer.Start(ctx, "cloudstorage.azurePutObject",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("key", key),
		),
	)
	defer span.End()

	_, err := c.api.UploadBuffer(ctx, bucket, key, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"writer": to.Ptr("settingsmanager"),
		},
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr("application/json"),
		},
	})
	if err != nil {
		recordError(ctx, ProviderAzure, "put", "unknown")
		span.RecordError(err)
		return fmt.Errorf("failed to upload blob %s/%s: %w", bucket, key, err)
	}
	recordPut(ctx, ProviderAzure, len(data))
	return nil
}

func (c *azureClient) DeleteObject(ctx context.Context, bucket, key string) error {
	ctx, span := tracer.Start(ctx, "cloudstorage.azureDeleteObject",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("key", key),
		),
	)
	defer span.End()

	_, err := c.api.DeleteBlob(ctx, bucket, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		recordError(ctx, ProviderAzure, "delete", "unknown")
		span.RecordError(err)
		return fmt.Errorf("failed to delete blob %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *azureClient) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "cloudstorage.azureListObjects",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("prefix", prefix),
		),
	)
	defer span.End()

	var names []string
	pager := c.api.NewListBlobsFlatPager(bucket, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			recordError(ctx, ProviderAzure, "list", "unknown")
			span.RecordError(err)
			return nil, fmt.Errorf("list blobs %s/%s: %w", bucket, prefix, err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item != nil && item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	span.SetAttributes(attribute.Int("object_count", len(names)))
	return names, nil
}
