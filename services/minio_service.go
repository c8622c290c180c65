package services

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type MinioService struct {
	client     *minio.Client
	bucketName string
}

func NewMinioService(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MinIO client")
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check bucket existence")
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "failed to create bucket")
		}
		log.Infof("Bucket created: %s", bucketName)
	}

	return &MinioService{client: client, bucketName: bucketName}, nil
}

func (m *MinioService) Offer(ctx context.Context, name string, body []byte) (string, error) {
	objectKey := path.Join("receipts", name)
	_, err := m.client.PutObject(ctx, m.bucketName, objectKey, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload receipt %s", name)
	}
	return objectKey, nil
}

func (m *MinioService) DownloadURL(ctx context.Context, objectKey string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucketName, objectKey, 15*time.Minute, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
