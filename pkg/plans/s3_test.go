package plans_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizkit-fr/entitlements/pkg/plans"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func objectFor(bucket, key string) any {
	return mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return in.Bucket != nil && *in.Bucket == bucket && in.Key != nil && *in.Key == key
	})
}

func TestS3Source(t *testing.T) {
	t.Parallel()

	t.Run("loads catalog", func(t *testing.T) {
		t.Parallel()
		client := &mockS3Client{}
		client.On("GetObject", mock.Anything, objectFor("catalogs", "prod/plans.yaml")).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(catalogYAML))}, nil).
			Once()

		catalog, err := plans.LoadCatalog(context.Background(), plans.NewS3Source(client, "catalogs", "prod/plans.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "Freemium", catalog.Free().Name)
		client.AssertExpectations(t)
	})

	t.Run("missing object", func(t *testing.T) {
		t.Parallel()
		client := &mockS3Client{}
		client.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"})

		_, err := plans.NewS3Source(client, "catalogs", "plans.yaml").Load(context.Background())
		assert.ErrorIs(t, err, plans.ErrCatalogNotFound)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		client := &mockS3Client{}
		client.On("GetObject", mock.Anything, mock.Anything).Return(nil, boom)

		_, err := plans.NewS3Source(client, "catalogs", "plans.yaml").Load(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, plans.ErrCatalogNotFound)
	})

	t.Run("invalid document", func(t *testing.T) {
		t.Parallel()
		client := &mockS3Client{}
		client.On("GetObject", mock.Anything, mock.Anything).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("free_plan: F\nplans:\n  - name: F\n    features: [nope]\n"))}, nil)

		_, err := plans.NewS3Source(client, "catalogs", "plans.yaml").Load(context.Background())
		assert.ErrorIs(t, err, plans.ErrUnknownFeature)
	})

	t.Run("nil client panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { plans.NewS3Source(nil, "b", "k") })
	})
}
