package services

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	sc "github.com/dmitrijs2005/mediaupload/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// Presign is a presigned PUT together with the public URL of the object.
type Presign struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// StorageService writes to the application's own S3-compatible storage.
type StorageService struct {
	config *sc.Config
	now    func() time.Time
}

func NewStorageService(config *sc.Config) *StorageService {
	return &StorageService{config: config, now: time.Now}
}

// StorageKey places a new object under folder, partitioned by date. The
// extension of fileName is kept so the object is served with a sensible
// type.
func (s *StorageService) StorageKey(folder, fileName string) string {
	d := s.now().UTC()
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%d/%02d/%02d/%v%s", folder, d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(path.Ext(fileName)))
}

// PublicURL is where key is served from.
func (s *StorageService) PublicURL(key string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + key
}

func (s *StorageService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// PresignPut returns a presigned PUT for a new object under folder.
func (s *StorageService) PresignPut(ctx context.Context, fileName, mimeType, folder string) (Presign, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return Presign{}, err
	}

	bucket := s.config.S3Bucket
	key := s.StorageKey(folder, fileName)
	in := &s3.PutObjectInput{Bucket: &bucket, Key: &key}
	if mimeType != "" {
		in.ContentType = aws.String(mimeType)
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, in, s3.WithPresignExpires(s.config.PresignValidityDuration))
	if err != nil {
		return Presign{}, err
	}

	return Presign{Key: key, UploadURL: req.URL, PublicURL: s.PublicURL(key)}, nil
}

// Put stores data under a new key in folder and returns the key and its
// public URL.
func (s *StorageService) Put(ctx context.Context, folder, fileName, mimeType string, data []byte) (string, string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := s.StorageKey(folder, fileName)
	in := &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if mimeType != "" {
		in.ContentType = aws.String(mimeType)
	}

	if _, err := putObject(client, ctx, in); err != nil {
		return "", "", err
	}
	return key, s.PublicURL(key), nil
}
