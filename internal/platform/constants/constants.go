// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Uploads: Size limits and batch sizes for object storage.
  - Cache: Redis key taxonomy for the public listing cache.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "komik-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Chapter page uploads are multipart bodies of up to 100 images.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 90 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 80 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// HealthCheckTimeout bounds each dependency probe in the readiness handler.
	HealthCheckTimeout = 2 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Uploads

const (
	// MaxImageBytes is the per-file limit for covers and chapter pages (10 MiB).
	MaxImageBytes = 10 << 20

	// MaxJSONBodyBytes caps plain JSON request bodies.
	MaxJSONBodyBytes = 1 << 20

	// MaxPagesPerChapter caps a single chapter page replacement.
	MaxPagesPerChapter = 100

	// MaxMultipartBytes caps a whole multipart request (all pages plus form fields).
	MaxMultipartBytes = MaxPagesPerChapter*MaxImageBytes + (1 << 20)

	// MultipartMemoryBytes is the part of a multipart body kept in memory before spilling to disk.
	MultipartMemoryBytes = 32 << 20

	// StorageRemoveBatchSize is the largest number of keys sent in one delete call.
	StorageRemoveBatchSize = 100

	// CoverMaxWidth and CoverMaxHeight bound the re-encoded cover image.
	CoverMaxWidth  = 800
	CoverMaxHeight = 1200

	// CoverWebPQuality is the lossy quality used when re-encoding covers.
	CoverWebPQuality = 82
)

// # Listing Defaults

const (
	// LatestUpdatesLimit is the default size of the "latest updates" feed.
	LatestUpdatesLimit = 10

	// MaxLatestUpdatesLimit caps the feed size a client may request.
	MaxLatestUpdatesLimit = 100

	// MaxLookupItems bounds each list in the admin form lookups.
	MaxLookupItems = 500
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
)

// # Log and Probe Fields

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisKeyCatalogVersion is bumped on every catalog mutation. Cached
	// listings embed the version in their key, so a bump orphans them all.
	RedisKeyCatalogVersion = "catalog:version"

	// RedisPrefixCatalog namespaces every cached public listing.
	RedisPrefixCatalog = "catalog:v"
)
