// Package media turns stored product image references into URLs clients can load.
package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"qahwa/internal/config"
	"qahwa/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Resolver resolves image references.
type Resolver interface {
	// Resolve returns the URL for ref, or "" when there is nothing to show.
	Resolve(ctx context.Context, ref string) string
}

// Presigner is the subset of the S3 presign client used by the resolver.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// NewResolver picks the S3 resolver when S3 is enabled and the public URL
// resolver otherwise.
func NewResolver(ctx context.Context, s3cfg config.S3Config, mediaCfg config.MediaConfig, logger zerolog.Logger) (Resolver, error) {
	if !s3cfg.Enabled {
		return NewPublicResolver(mediaCfg.PublicBaseURL), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s3cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	presigner := s3.NewPresignClient(s3.NewFromConfig(awsCfg))
	return NewS3Resolver(presigner, s3cfg, logger), nil
}

// publicResolver joins references onto a public base URL.
type publicResolver struct {
	base string
}

// NewPublicResolver creates a resolver that serves images from base. An empty
// base returns references unchanged.
func NewPublicResolver(base string) Resolver {
	return &publicResolver{base: strings.TrimRight(base, "/")}
}

func (r *publicResolver) Resolve(_ context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || isAbsolute(ref) || r.base == "" {
		return ref
	}
	return r.base + "/" + strings.TrimLeft(ref, "/")
}

// s3Resolver presigns GET requests for objects under a bucket prefix.
type s3Resolver struct {
	presigner Presigner
	bucket    string
	prefix    string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewS3Resolver creates a resolver that presigns references as keys in the
// configured bucket.
func NewS3Resolver(presigner Presigner, cfg config.S3Config, logger zerolog.Logger) Resolver {
	logger = logger.With().Str("component", "s3-media-resolver").Logger()

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("prefix", cfg.Prefix).
		Dur("ttl", cfg.PresignTTL).
		Msg("S3 media resolver initialised")

	return &s3Resolver{
		presigner: presigner,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		ttl:       cfg.PresignTTL,
		logger:    logger,
	}
}

func (r *s3Resolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || isAbsolute(ref) {
		return ref
	}

	key := r.key(ref)
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		// A product without an image is still listed.
		r.logger.Warn().
			Err(err).
			Str("bucket", r.bucket).
			Str("key", key).
			Msg("failed to presign image")
		return ""
	}

	return req.URL
}

func (r *s3Resolver) key(ref string) string {
	ref = strings.TrimLeft(ref, "/")
	if r.prefix == "" || strings.HasPrefix(ref, r.prefix) {
		return ref
	}
	return strings.TrimRight(r.prefix, "/") + "/" + ref
}

func isAbsolute(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// ResolveProduct fills in the image URL of p.
func ResolveProduct(ctx context.Context, r Resolver, p *model.Product) {
	p.ImageURL = r.Resolve(ctx, p.ImageRef)
}

// ResolveSnapshot fills in the image URL of a line's related product.
func ResolveSnapshot(ctx context.Context, r Resolver, s *model.ProductSnapshot) {
	if s == nil || s.Missing {
		return
	}
	s.ImageURL = r.Resolve(ctx, s.ImageRef)
}
