// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

const (
	// cacheControl matches the one hour public cache the reader pages expect.
	cacheControl = "public, max-age=3600"

	// listPageSize is the largest page OSS returns from ListObjects.
	listPageSize = 1000
)

// OSS implements [ObjectStorage] and [Lister] on Aliyun Object Storage Service.
type OSS struct {
	client     *oss.Client
	endpoint   string
	publicBase string
}

// OSSConfig holds the values needed to reach the store.
type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string

	// PublicBaseURL replaces the virtual-hosted bucket URL (e.g. a CDN).
	PublicBaseURL string
}

// NewOSS builds a client and checks that every bucket the application writes to exists.
func NewOSS(cfg OSSConfig, logger *slog.Logger, buckets ...string) (*OSS, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create oss client: %w", err)
	}

	for _, bucket := range buckets {
		exists, err := client.IsBucketExist(bucket)
		if err != nil {
			// A key scoped to objects may not list buckets; uploads will still tell.
			if serviceError, ok := err.(oss.ServiceError); ok && serviceError.StatusCode == 403 {
				logger.Warn("storage_bucket_check_skipped", slog.String("bucket", bucket))
				continue
			}
			return nil, fmt.Errorf("storage: failed to check bucket %s: %w", bucket, err)
		}
		if !exists {
			return nil, fmt.Errorf("storage: bucket %s does not exist", bucket)
		}
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	logger.Info("storage_connected", slog.String("endpoint", endpoint), slog.Any("buckets", buckets))

	return &OSS{
		client:     client,
		endpoint:   strings.TrimRight(endpoint, "/"),
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores body and returns its path and public URL.
func (store *OSS) Upload(context context.Context, bucketName, path string, body io.Reader, size int64, contentType string) (Object, error) {
	bucket, err := store.client.Bucket(bucketName)
	if err != nil {
		return Object{}, fmt.Errorf("storage: bucket %s: %w", bucketName, err)
	}

	options := []oss.Option{
		oss.WithContext(context),
		oss.ContentType(contentType),
		oss.ContentLength(size),
		oss.CacheControl(cacheControl),
		oss.ForbidOverWrite(true),
	}
	if err := bucket.PutObject(path, body, options...); err != nil {
		return Object{}, fmt.Errorf("storage: failed to upload %s/%s: %w", bucketName, path, err)
	}

	return Object{Bucket: bucketName, Path: path, URL: store.PublicURL(bucketName, path)}, nil
}

// PublicURL returns {base}/{bucket}/{path} when a public base is configured,
// else the virtual-hosted OSS URL.
func (store *OSS) PublicURL(bucket, path string) string {
	path = strings.TrimLeft(path, "/")
	if store.publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", store.publicBase, bucket, path)
	}
	return fmt.Sprintf("https://%s.%s/%s", bucket, store.endpoint, path)
}

// Remove deletes paths in one quiet DeleteObjects call.
func (store *OSS) Remove(context context.Context, bucketName string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	bucket, err := store.client.Bucket(bucketName)
	if err != nil {
		return fmt.Errorf("storage: bucket %s: %w", bucketName, err)
	}

	if _, err := bucket.DeleteObjects(paths, oss.DeleteObjectsQuiet(true), oss.WithContext(context)); err != nil {
		return fmt.Errorf("storage: failed to remove %d objects from %s: %w", len(paths), bucketName, err)
	}
	return nil
}

// Walk pages through every object of the bucket.
func (store *OSS) Walk(context context.Context, bucketName string, visit func(ObjectInfo) error) error {
	bucket, err := store.client.Bucket(bucketName)
	if err != nil {
		return fmt.Errorf("storage: bucket %s: %w", bucketName, err)
	}

	marker := oss.Marker("")
	for {
		result, err := bucket.ListObjects(marker, oss.MaxKeys(listPageSize), oss.WithContext(context))
		if err != nil {
			return fmt.Errorf("storage: failed to list %s: %w", bucketName, err)
		}

		for _, object := range result.Objects {
			if object.Key == "" || strings.HasSuffix(object.Key, "/") {
				continue
			}
			if err := visit(ObjectInfo{Path: object.Key, LastModified: object.LastModified}); err != nil {
				return err
			}
		}

		if !result.IsTruncated {
			return nil
		}
		marker = oss.Marker(result.NextMarker)
	}
}
