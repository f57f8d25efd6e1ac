package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/accountability/internal/server/awsx"
	"github.com/dmitrijs2005/accountability/internal/server/config"
	"github.com/google/uuid"
)

// ExportURLValidity is how long a presigned export link stays usable.
const ExportURLValidity = 15 * time.Minute

var (
	loadAWSConfig = awsx.Load

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportResult locates an uploaded dashboard export.
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportService renders the dashboard as CSV, stores it in S3 and hands out
// a presigned download link.
type ExportService struct {
	dashboard *DashboardService
	aws       awsx.Options
	bucket    string
	now       func() time.Time
}

func NewExportService(d *DashboardService, cfg *config.Config) *ExportService {
	return &ExportService{
		dashboard: d,
		aws: awsx.Options{
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Endpoint:  cfg.AWSEndpoint,
		},
		bucket: cfg.S3Bucket,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func exportKey(now time.Time, start, end string) string {
	return fmt.Sprintf("exports/%d/%02d/%02d/dashboard_%s_%s_%s.csv",
		now.Year(), now.Month(), now.Day(), start, end, uuid.New())
}

func (s *ExportService) getClients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadAWSConfig(ctx, s.aws)
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		// MinIO and LocalStack only serve path-style buckets.
		o.UsePathStyle = s.aws.Endpoint != ""
	})
	return client, newS3PresignClient(client), nil
}

func (s *ExportService) ExportDashboard(ctx context.Context, start, end string) (*ExportResult, error) {
	rows, err := s.dashboard.Dashboard(ctx, start, end)
	if err != nil {
		return nil, err
	}

	body, err := DashboardCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	client, presignClient, err := s.getClients(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := exportKey(now, start, end)

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ExportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	return &ExportResult{Key: key, URL: req.URL, ExpiresAt: now.Add(ExportURLValidity)}, nil
}

// DashboardCSV renders rows as CSV: a header line with the day columns, then
// one line per user with true/false per day.
func DashboardCSV(rows []DashboardRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	for _, r := range rows {
		record := make([]string, 0, len(r.Data)+3)
		if r.ID == HeaderRowID {
			record = append(record, "id", "firstName", "lastName")
			for _, d := range r.Data {
				record = append(record, d.Date)
			}
		} else {
			record = append(record, r.ID, r.FirstName, r.LastName)
			for _, d := range r.Data {
				record = append(record, strconv.FormatBool(d.Complete))
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
