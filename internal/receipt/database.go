package receipt

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	scanBucketName       = "scans"
	submissionBucketName = "submissions"
)

// DB defines the interface for archive database operations
type DB interface {
	// SaveScan saves a scan to the archive
	SaveScan(scan *Scan) error

	// GetScan retrieves a scan by ID
	GetScan(id string) (*Scan, error)

	// ListScans returns all archived scans
	ListScans() ([]*Scan, error)

	// DeleteScan removes a scan from the archive
	DeleteScan(id string) error

	// SaveSubmission saves a submission batch to the archive
	SaveSubmission(submission *Submission) error

	// GetSubmission retrieves a submission by ID
	GetSubmission(id string) (*Submission, error)

	// ListSubmissions returns all archived submissions
	ListSubmissions() ([]*Submission, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(scanBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(submissionBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveScan saves a scan to the archive
func (b *BoltDB) SaveScan(scan *Scan) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data, err := json.Marshal(scan)
		if err != nil {
			return fmt.Errorf("marshaling scan: %w", err)
		}
		return bucket.Put([]byte(scan.ID), data)
	})
}

// GetScan retrieves a scan by ID
func (b *BoltDB) GetScan(id string) (*Scan, error) {
	var scan *Scan
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan not found: %s", id)
		}
		return json.Unmarshal(data, &scan)
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// ListScans returns all archived scans
func (b *BoltDB) ListScans() ([]*Scan, error) {
	scans := make([]*Scan, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var scan Scan
			if err := json.Unmarshal(v, &scan); err != nil {
				return fmt.Errorf("unmarshaling scan: %w", err)
			}
			scans = append(scans, &scan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return scans, nil
}

// DeleteScan removes a scan from the archive
func (b *BoltDB) DeleteScan(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveSubmission saves a submission batch to the archive
func (b *BoltDB) SaveSubmission(submission *Submission) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucketName))
		data, err := json.Marshal(submission)
		if err != nil {
			return fmt.Errorf("marshaling submission: %w", err)
		}
		return bucket.Put([]byte(submission.ID), data)
	})
}

// GetSubmission retrieves a submission by ID
func (b *BoltDB) GetSubmission(id string) (*Submission, error) {
	var submission *Submission
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("submission not found: %s", id)
		}
		return json.Unmarshal(data, &submission)
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// ListSubmissions returns all archived submissions
func (b *BoltDB) ListSubmissions() ([]*Submission, error) {
	submissions := make([]*Submission, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var submission Submission
			if err := json.Unmarshal(v, &submission); err != nil {
				return fmt.Errorf("unmarshaling submission: %w", err)
			}
			submissions = append(submissions, &submission)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
