package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/filex"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/entries"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	putObject             = s3PutObject
)

func s3PutObject(ctx context.Context, c *s3.Client, in *s3.PutObjectInput) error {
	_, err := c.PutObject(ctx, in)
	return err
}

var exportHeader = []string{"date", "slot", "severity", "severity_value", "updated_at"}

type ExportService interface {
	// Export writes entries in [from, to] as CSV and returns the local path
	// and, when an S3 bucket is configured, the uploaded object key.
	Export(ctx context.Context, from, to string) (path string, key string, err error)
}

type exportService struct {
	entryRepo entries.Repository
	config    *config.Config
	now       func() time.Time
}

func NewExportService(entryRepo entries.Repository, config *config.Config) ExportService {
	return &exportService{entryRepo: entryRepo, config: config, now: time.Now}
}

// GetRandomStorageKey returns an object key under a per-day prefix.
func GetRandomStorageKey(d time.Time) string {
	return fmt.Sprintf("exports/%04d/%02d/%02d/%v.csv", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *exportService) Export(ctx context.Context, from, to string) (string, string, error) {
	if err := validateRange(from, to); err != nil {
		return "", "", err
	}
	rows, err := s.entryRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return "", "", fmt.Errorf("error listing entries: %w", err)
	}

	data, err := EncodeCSV(rows)
	if err != nil {
		return "", "", err
	}

	dir, err := filex.EnsureDir(s.config.ExportDir)
	if err != nil {
		return "", "", err
	}
	now := s.now().UTC()
	path := filepath.Join(dir, "healthtrend-"+now.Format("20060102-150405")+".csv")
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", "", err
	}

	if s.config.S3Bucket == "" {
		return path, "", nil
	}

	key := GetRandomStorageKey(now)
	if err := s.upload(ctx, key, data); err != nil {
		return path, "", fmt.Errorf("upload error: %w", err)
	}
	return path, key, nil
}

// EncodeCSV renders entries with a header row.
func EncodeCSV(rows []*models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, e := range rows {
		rec := []string{
			e.Date,
			e.Slot.String(),
			e.Severity.Label(),
			strconv.Itoa(int(e.Severity)),
			strconv.FormatInt(e.UpdatedAt, 10),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv error: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) getS3Client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.config.S3Region)}
	if s.config.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey, s.config.S3SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *exportService) upload(ctx context.Context, key string, data []byte) error {
	client, err := s.getS3Client(ctx)
	if err != nil {
		return err
	}
	return putObject(ctx, client, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
}
