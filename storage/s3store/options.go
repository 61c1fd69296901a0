package s3store

import "log/slog"

// Option configures a Store at construction time.
type Option func(*config)

type config struct {
	region          string
	endpoint        string
	forcePathStyle  bool
	maxRetries      int
	accessKeyID     string
	secretAccessKey string
	logger          *slog.Logger
}

// WithRegion sets the AWS region. If not specified, the default credential
// chain's region is used, falling back to us-east-1.
func WithRegion(region string) Option {
	return func(c *config) {
		c.region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL. Useful for S3-compatible
// services or local testing.
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// Required for most S3-compatible services.
func WithForcePathStyle(force bool) Option {
	return func(c *config) {
		c.forcePathStyle = force
	}
}

// WithMaxRetries bounds the transient-failure retry count for uploads.
// Default is 3. Set to 0 to disable retries.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithStaticCredentials supplies explicit credentials instead of the default
// chain. Leave both empty to use the chain.
func WithStaticCredentials(accessKeyID, secretAccessKey string) Option {
	return func(c *config) {
		c.accessKeyID = accessKeyID
		c.secretAccessKey = secretAccessKey
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
