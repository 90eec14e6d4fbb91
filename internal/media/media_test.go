package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"qahwa/internal/config"
	"qahwa/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPresigner struct {
	mock.Mock
}

func (m *mockPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	args := m.Called(ctx, aws.ToString(params.Bucket), aws.ToString(params.Key))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v4.PresignedHTTPRequest), args.Error(1)
}

func s3Config() config.S3Config {
	return config.S3Config{
		Enabled:    true,
		Bucket:     "qahwa-media",
		Region:     "eu-central-1",
		Prefix:     "products/",
		PresignTTL: 15 * time.Minute,
	}
}

func TestPublicResolver(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{name: "Joins relative reference", base: "https://cdn.qahwa.test/img/", ref: "yemeni-mocha.jpg", want: "https://cdn.qahwa.test/img/yemeni-mocha.jpg"},
		{name: "Strips leading slash", base: "https://cdn.qahwa.test", ref: "/beans/harar.png", want: "https://cdn.qahwa.test/beans/harar.png"},
		{name: "Keeps absolute URL", base: "https://cdn.qahwa.test", ref: "https://images.example.com/a.jpg", want: "https://images.example.com/a.jpg"},
		{name: "Empty reference", base: "https://cdn.qahwa.test", ref: "  ", want: ""},
		{name: "No base", base: "", ref: "a.jpg", want: "a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPublicResolver(tt.base)
			assert.Equal(t, tt.want, r.Resolve(context.Background(), tt.ref))
		})
	}
}

func TestS3Resolver_Resolve(t *testing.T) {
	presigner := &mockPresigner{}
	presigner.On("PresignGetObject", mock.Anything, "qahwa-media", "products/yemeni-mocha.jpg").
		Return(&v4.PresignedHTTPRequest{URL: "https://qahwa-media.s3.amazonaws.com/products/yemeni-mocha.jpg?X-Amz-Signature=abc"}, nil)

	r := NewS3Resolver(presigner, s3Config(), zerolog.Nop())

	got := r.Resolve(context.Background(), "yemeni-mocha.jpg")
	assert.Equal(t, "https://qahwa-media.s3.amazonaws.com/products/yemeni-mocha.jpg?X-Amz-Signature=abc", got)

	// Already prefixed keys are not prefixed twice.
	got = r.Resolve(context.Background(), "/products/yemeni-mocha.jpg")
	assert.Contains(t, got, "X-Amz-Signature")

	presigner.AssertNumberOfCalls(t, "PresignGetObject", 2)
}

func TestS3Resolver_SkipsEmptyAndAbsolute(t *testing.T) {
	presigner := &mockPresigner{}
	r := NewS3Resolver(presigner, s3Config(), zerolog.Nop())

	assert.Equal(t, "", r.Resolve(context.Background(), ""))
	assert.Equal(t, "https://x.test/a.jpg", r.Resolve(context.Background(), "https://x.test/a.jpg"))
	presigner.AssertNotCalled(t, "PresignGetObject", mock.Anything, mock.Anything, mock.Anything)
}

func TestS3Resolver_PresignFailure(t *testing.T) {
	presigner := &mockPresigner{}
	presigner.On("PresignGetObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no credentials"))

	r := NewS3Resolver(presigner, s3Config(), zerolog.Nop())

	assert.Equal(t, "", r.Resolve(context.Background(), "harar.png"))
}

func TestS3Resolver_RealPresignClient(t *testing.T) {
	client := s3.New(s3.Options{
		Region: "eu-central-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	})
	r := NewS3Resolver(s3.NewPresignClient(client), s3Config(), zerolog.Nop())

	got := r.Resolve(context.Background(), "harar.png")
	require.NotEmpty(t, got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "products/harar.png"), u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}

func TestResolveHelpers(t *testing.T) {
	r := NewPublicResolver("https://cdn.qahwa.test")

	p := &model.Product{ID: 1, ImageRef: "a.jpg"}
	ResolveProduct(context.Background(), r, p)
	assert.Equal(t, "https://cdn.qahwa.test/a.jpg", p.ImageURL)

	s := &model.ProductSnapshot{ID: 1, ImageRef: "b.jpg"}
	ResolveSnapshot(context.Background(), r, s)
	assert.Equal(t, "https://cdn.qahwa.test/b.jpg", s.ImageURL)

	missing := model.MissingProduct(2)
	ResolveSnapshot(context.Background(), r, &missing)
	assert.Empty(t, missing.ImageURL)

	ResolveSnapshot(context.Background(), r, nil)
}

func TestNewResolver_PublicWhenS3Disabled(t *testing.T) {
	r, err := NewResolver(context.Background(), config.S3Config{}, config.MediaConfig{PublicBaseURL: "https://cdn.qahwa.test"}, zerolog.Nop())
	require.NoError(t, err)

	assert.IsType(t, &publicResolver{}, r)
}
