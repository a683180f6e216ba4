package s3client

import (
	"adicare.it/ace/logger"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/kelseyhightower/envconfig"
	"strings"
)

type EnvironmentConfig struct {
	BucketName string `envconfig:"ACE_STORAGE_BUCKET" required:"true"`
	Region     string `envconfig:"ACE_STORAGE_REGION" default:"eu-south-1"`
}

type Client struct {
	sess       *session.Session
	bucketName string
}

var clientLogger = logger.NewLogger("S3Client")

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(env.Region)})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &Client{
		sess:       sess,
		bucketName: env.BucketName,
	}, nil
}

func (client *Client) Upload(data string, key string) error {
	uploader := s3manager.NewUploader(client.sess)
	clientLogger.Debug().Str("key", key).Str("bucket", client.bucketName).Msg("Uploading the file")
	_, err := uploader.Upload(&s3manager.UploadInput{
		Bucket: &client.bucketName,
		Key:    &key,
		Body:   strings.NewReader(data),
	})
	return err
}

func (client *Client) Download(key string) ([]byte, error) {
	downloader := s3manager.NewDownloader(client.sess)
	clientLogger.Debug().Str("key", key).Str("bucket", client.bucketName).Msg("Downloading the file")
	buf := aws.NewWriteAtBuffer(nil)
	_, err := downloader.Download(buf, &s3.GetObjectInput{
		Bucket: &client.bucketName,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (client *Client) Close() {}
