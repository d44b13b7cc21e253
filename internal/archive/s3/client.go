package s3

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	envConfig "github.com/BarkinBalci/ga4-warehouse-loader/internal/config"
)

// PutObjectAPI is the part of the S3 client the archiver uses
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver uploads export files to an S3 bucket
type Archiver struct {
	client PutObjectAPI
	config envConfig.Archive
	log    *zap.Logger
}

// NewArchiver creates an S3 client from the default AWS config chain
func NewArchiver(ctx context.Context, archiveConfig envConfig.Archive, log *zap.Logger) (*Archiver, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(archiveConfig.Region),
	}

	var clientOpts []func(*s3.Options)

	// Local S3-compatible storage such as MinIO
	if archiveConfig.Endpoint != "" {
		log.Info("Configuring S3 for local development",
			zap.String("endpoint", archiveConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(archiveConfig.Endpoint)
			o.UsePathStyle = true
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("S3 archiver created",
		zap.String("region", archiveConfig.Region),
		zap.String("bucket", archiveConfig.Bucket))

	return NewArchiverWithClient(s3.NewFromConfig(cfg, clientOpts...), archiveConfig, log), nil
}

// NewArchiverWithClient wraps an existing client
func NewArchiverWithClient(client PutObjectAPI, archiveConfig envConfig.Archive, log *zap.Logger) *Archiver {
	return &Archiver{client: client, config: archiveConfig, log: log}
}

// Archive uploads the file at localPath under <prefix>/<YYYY-MM-DD>/<run_id>/
// and returns its s3:// location
func (a *Archiver) Archive(ctx context.Context, localPath string, runDate time.Time, runID string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	key := ObjectKey(a.config.Prefix, runDate, runID, filepath.Base(localPath))

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.config.Bucket),
		Key:    aws.String(key),
		Body:   file,
		Metadata: map[string]string{
			"run-id": runID,
		},
	})
	if err != nil {
		a.log.Error("Failed to upload export to S3",
			zap.String("bucket", a.config.Bucket),
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to upload export to S3: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", a.config.Bucket, key)
	a.log.Info("Export archived", zap.String("location", location))

	return location, nil
}

// ObjectKey builds the object key of an archived export
func ObjectKey(prefix string, runDate time.Time, runID, name string) string {
	return path.Join(prefix, runDate.Format("2006-01-02"), runID, name)
}
