package genstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ieltsprep/pkg/domain"
)

const objectTimeout = 10 * time.Second

// MinioStore keeps one JSON object per record in a MinIO/S3 bucket, under the
// jobs/ and practice_sets/ key prefixes. Used when the service is deployed
// without a persistent local disk.
type MinioStore struct {
	client *minio.Client
	bucket string

	mu     sync.Mutex
	latest string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), objectTimeout)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// PutJob writes the job record as one object keyed by its id.
func (s *MinioStore) PutJob(job domain.Job) error {
	return s.putObject(jobsDirName+"/"+job.ID+".json", job)
}

// GetJob reads a job record; a missing object is reported as not found.
func (s *MinioStore) GetJob(id string) (domain.Job, bool, error) {
	var job domain.Job
	ok, err := s.getObject(jobsDirName+"/"+id+".json", &job)
	return job, ok, err
}

// UpdateJob merges the update over the stored record. Missing job: no-op.
func (s *MinioStore) UpdateJob(id string, update JobUpdate) error {
	job, ok, err := s.GetJob(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	applyJobUpdate(&job, update)
	return s.PutJob(job)
}

// PutPracticeSet writes the record and advances the most-recent pointer.
func (s *MinioStore) PutPracticeSet(ps domain.PracticeSet) error {
	if err := s.putObject(setsDirName+"/"+ps.ID+".json", ps); err != nil {
		return err
	}
	s.mu.Lock()
	s.latest = ps.ID
	s.mu.Unlock()
	return nil
}

// GetPracticeSet reads a practice-set record by id.
func (s *MinioStore) GetPracticeSet(id string) (domain.PracticeSet, bool, error) {
	var ps domain.PracticeSet
	ok, err := s.getObject(setsDirName+"/"+id+".json", &ps)
	return ps, ok, err
}

// LatestPracticeSetID returns the most recently stored practice-set id.
func (s *MinioStore) LatestPracticeSetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *MinioStore) putObject(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), objectTimeout)
	defer cancel()
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (s *MinioStore) getObject(key string, v any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), objectTimeout)
	defer cancel()
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("get record: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}
	return true, nil
}
