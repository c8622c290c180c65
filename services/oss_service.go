package services

import (
	"bytes"
	"context"
	"path"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

type OSSService struct {
	client     *oss.Client
	bucketName string
}

func NewOSSService(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSSService, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, err
	}
	return &OSSService{client: client, bucketName: bucketName}, nil
}

// Offer archives the receipt under receipts/<name>.
func (o *OSSService) Offer(_ context.Context, name string, body []byte) (string, error) {
	bucket, err := o.client.Bucket(o.bucketName)
	if err != nil {
		return "", err
	}

	objectKey := path.Join("receipts", name)
	if err := bucket.PutObject(objectKey, bytes.NewReader(body), oss.ContentType("application/json")); err != nil {
		return "", errors.Wrapf(err, "failed to upload receipt %s", name)
	}
	return objectKey, nil
}

func (o *OSSService) DownloadURL(_ context.Context, objectKey string) (string, error) {
	bucket, err := o.client.Bucket(o.bucketName)
	if err != nil {
		return "", err
	}

	return bucket.SignURL(objectKey, oss.HTTPGet, 900)
}
