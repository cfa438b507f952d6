// Package archive stores raw ads-library payloads in S3 so a keyword
// run can be replayed or audited without re-hitting the library.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// S3Archive writes one JSON object per keyword run.
type S3Archive struct {
	client *s3.Client
	bucket string
}

// payload is the JSON structure stored in S3.
type payload struct {
	RunID      string          `json:"run_id"`
	Keyword    string          `json:"keyword"`
	ArchivedAt time.Time       `json:"archived_at"`
	AdCount    int             `json:"ad_count"`
	Raw        json.RawMessage `json:"raw"`
}

// NewS3Archive creates an S3-backed raw-payload archive.
func NewS3Archive(ctx context.Context, bucket, region string) (*S3Archive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for ads archive: %w", err)
	}
	return &S3Archive{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (a *S3Archive) key(runID string, day time.Time) string {
	return fmt.Sprintf("ads-raw/%s/%s.json", day.Format("2006-01-02"), runID)
}

// SaveRun archives the raw ads returned for one keyword run. Failures
// are the caller's to log; archiving is best-effort and never blocks
// the ingest pipeline.
func (a *S3Archive) SaveRun(ctx context.Context, runID, keyword string, raw json.RawMessage, adCount int) error {
	p := payload{
		RunID:      runID,
		Keyword:    keyword,
		ArchivedAt: time.Now().UTC(),
		AdCount:    adCount,
		Raw:        raw,
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling archive payload: %w", err)
	}

	key := a.key(runID, p.ArchivedAt)
	contentType := "application/json"
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", a.bucket, key, err)
	}

	logger.Debug("archived raw ads payload", "run_id", runID, "key", key, "bytes", len(body))
	return nil
}

// LoadRun retrieves an archived payload by run id and day. Returns nil
// (not an error) when no archive exists.
func (a *S3Archive) LoadRun(ctx context.Context, runID string, day time.Time) (json.RawMessage, error) {
	key := a.key(runID, day)
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", a.bucket, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading archive body: %w", err)
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling archive payload: %w", err)
	}
	return p.Raw, nil
}

// isNotFound matches the SDK's missing-object errors.
func isNotFound(err error) bool {
	s := err.Error()
	return strings.Contains(s, "NoSuchKey") || strings.Contains(s, "NotFound") || strings.Contains(s, "404")
}
