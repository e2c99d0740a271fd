package services

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/mediaupload/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageForTest(t *testing.T) *StorageService {
	t.Helper()
	cfg := &sc.Config{
		S3Region:                "us-east-1",
		S3RootUser:              "minioadmin",
		S3RootPassword:          "minioadmin",
		S3BaseEndpoint:          "http://127.0.0.1:9000",
		S3Bucket:                "market",
		PublicBaseURL:           "https://media.example.com/market/",
		PresignValidityDuration: 5 * time.Minute,
	}
	svc := NewStorageService(cfg)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// stubAWS replaces the SDK seams and returns a pointer to the captured
// base endpoint.
func stubAWS(t *testing.T) *string {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPresign := presignPutObject
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPresign
		putObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var endpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		if !opts.UsePathStyle {
			t.Fatalf("path style addressing not enabled")
		}
		endpoint = *opts.BaseEndpoint
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
	return &endpoint
}

func TestStorageKey(t *testing.T) {
	svc := newStorageForTest(t)

	key := svc.StorageKey("/products/p1/", "Photo.JPG")
	assert.Regexp(t, regexp.MustCompile(`^products/p1/2024/03/01/[0-9a-f-]{36}\.jpg$`), key)
	assert.Regexp(t, regexp.MustCompile(`^uploads/2024/03/01/[0-9a-f-]{36}$`), svc.StorageKey("", "noext"))
	assert.Equal(t, "https://media.example.com/market/a/b.jpg", svc.PublicURL("a/b.jpg"))
}

func TestPresignPut(t *testing.T) {
	svc := newStorageForTest(t)
	endpoint := stubAWS(t)

	var gotKey, gotType string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != 5*time.Minute {
			t.Fatalf("expiry not applied: %v", po.Expires)
		}
		gotKey, gotType = aws.ToString(in.Key), aws.ToString(in.ContentType)
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + gotKey + "?X-Amz-Signature=abc"}, nil
	}

	p, err := svc.PresignPut(context.Background(), "a.png", "image/png", "products/p1")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", *endpoint)
	assert.Equal(t, gotKey, p.Key)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "https://s3.local/"+p.Key+"?X-Amz-Signature=abc", p.UploadURL)
	assert.Equal(t, "https://media.example.com/market/"+p.Key, p.PublicURL)
}

func TestPresignPut_Errors(t *testing.T) {
	svc := newStorageForTest(t)
	stubAWS(t)

	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign failed")
	}
	_, err := svc.PresignPut(context.Background(), "a.png", "", "x")
	assert.EqualError(t, err, "presign failed")

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = svc.PresignPut(context.Background(), "a.png", "", "x")
	assert.EqualError(t, err, "no config")
}

func TestPut(t *testing.T) {
	svc := newStorageForTest(t)
	stubAWS(t)

	var body []byte
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		assert.Equal(t, "market", aws.ToString(in.Bucket))
		assert.Equal(t, int64(3), aws.ToInt64(in.ContentLength))
		assert.Equal(t, "image/jpeg", aws.ToString(in.ContentType))
		body, _ = io.ReadAll(in.Body)
		return &s3.PutObjectOutput{}, nil
	}

	key, url, err := svc.Put(context.Background(), "orders/o1", "a.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), body)
	assert.Regexp(t, `^orders/o1/2024/03/01/.+\.jpg$`, key)
	assert.Equal(t, "https://media.example.com/market/"+key, url)

	putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	}
	_, _, err = svc.Put(context.Background(), "orders/o1", "a.jpg", "image/jpeg", []byte("abc"))
	assert.EqualError(t, err, "access denied")
}
