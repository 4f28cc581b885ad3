// Package genstore persists generation jobs and practice sets, one durable
// unit per record id. It is the only component that touches this storage.
package genstore

import "ieltsprep/pkg/domain"

// Store is keyed persistence for the two generated record kinds. Concurrent
// UpdateJob calls for the same id are not sequenced here; each job has exactly
// one background writer, which is what keeps the single terminal transition
// safe.
type Store interface {
	PutJob(job domain.Job) error
	GetJob(id string) (domain.Job, bool, error)
	// UpdateJob loads the job, merges the update over it and persists the
	// result. A missing job is a silent no-op: the caller treats it as a
	// lost update, never as an error surfaced to the end user.
	UpdateJob(id string, update JobUpdate) error

	PutPracticeSet(ps domain.PracticeSet) error
	GetPracticeSet(id string) (domain.PracticeSet, bool, error)
	// LatestPracticeSetID returns the id of the most recently stored
	// practice set, or "" when none exists. Process-lifetime only,
	// last-writer-wins.
	LatestPracticeSetID() string
}

// JobUpdate carries the fields merged over an existing job record. Empty
// fields are left untouched.
type JobUpdate struct {
	Status        domain.JobStatus
	PracticeSetID string
	Error         string
}

func applyJobUpdate(job *domain.Job, u JobUpdate) {
	if u.Status != "" {
		job.Status = u.Status
	}
	if u.PracticeSetID != "" {
		job.PracticeSetID = u.PracticeSetID
	}
	if u.Error != "" {
		job.Error = u.Error
	}
}
