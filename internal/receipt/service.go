package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/TTTPOB/auto-quartzy/internal/order"
	"github.com/TTTPOB/auto-quartzy/internal/scanning"
)

// IDGenerator generates unique IDs for archive records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// Submitter sends mapped order requests to the ordering API. Satisfied by
// *order.Client.
type Submitter interface {
	SubmitAll(ctx context.Context, requests []order.Request) []json.RawMessage
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service drives the extract-review-submit pipeline: uploads become archived
// scans with editable rows, edited rows become ordering API calls.
type Service struct {
	db          DB
	extractor   scanning.Extractor
	storage     Storage
	submitter   Submitter
	orderCfg    order.Config
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor scanning.Extractor, storage Storage, submitter Submitter, orderCfg order.Config) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		submitter:   submitter,
		orderCfg:    orderCfg,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor scanning.Extractor, storage Storage, submitter Submitter, orderCfg order.Config, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		submitter:   submitter,
		orderCfg:    orderCfg,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	// Phone-generated filenames can get very long
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ProcessScan runs one extraction: decode and normalize the upload, archive
// the image, call the extractor once, archive the parsed receipt, and return
// it with its projected display rows. Undecodable uploads fail before any
// model call; extraction failures are fatal to this scan and leave nothing
// archived.
func (s *Service) ProcessScan(filename string, data []byte, contentType string) (*Scan, []order.DisplayRow, error) {
	img, err := scanning.NormalizeUpload(data, contentType)
	if err != nil {
		return nil, nil, err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, nil, fmt.Errorf("saving file: %w", err)
	}

	parsed, err := s.extractor.ExtractReceipt(img)
	if err != nil {
		slog.Error("Failed to extract receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		s.storage.Delete(savedPath)
		return nil, nil, err
	}

	scan := &Scan{
		ID:          id,
		Receipt:     *parsed,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
	}

	if err := s.db.SaveScan(scan); err != nil {
		s.storage.Delete(savedPath)
		return nil, nil, fmt.Errorf("saving scan to archive: %w", err)
	}

	return scan, order.Project(parsed), nil
}

// SubmitRows maps the operator's edited rows into order requests, submits
// them strictly in order, and archives the batch with its per-row results.
// Row failures are data in the results, not errors; only an archive failure
// is an error here.
func (s *Service) SubmitRows(ctx context.Context, rows []order.DisplayRow) (*Submission, error) {
	requests := order.MapAll(rows, s.orderCfg)
	results := s.submitter.SubmitAll(ctx, requests)

	submission := &Submission{
		ID:        s.idGenerator.Generate(),
		Rows:      rows,
		Results:   results,
		CreatedAt: s.timeSource.Now(),
	}

	if err := s.db.SaveSubmission(submission); err != nil {
		return nil, fmt.Errorf("saving submission to archive: %w", err)
	}

	return submission, nil
}

// GetScan retrieves an archived scan by ID
func (s *Service) GetScan(id string) (*Scan, error) {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return scan, nil
}

// ListScans returns all archived scans
func (s *Service) ListScans() ([]*Scan, error) {
	scans, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

// DeleteScan removes a scan and its stored image
func (s *Service) DeleteScan(id string) error {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}

	if err := s.storage.Delete(scan.Filename); err != nil {
		// Log error but continue with archive deletion
		slog.Warn("Failed to delete file", "filename", scan.Filename, "error", err)
	}

	if err := s.db.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan from archive: %w", err)
	}
	return nil
}

// GetScanFile retrieves the stored image for a scan
func (s *Service) GetScanFile(id string) ([]byte, string, error) {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan: %w", err)
	}

	data, err := s.storage.Get(scan.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan file: %w", err)
	}

	return data, scan.ContentType, nil
}

// GetSubmission retrieves an archived submission by ID
func (s *Service) GetSubmission(id string) (*Submission, error) {
	submission, err := s.db.GetSubmission(id)
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return submission, nil
}

// ListSubmissions returns all archived submissions
func (s *Service) ListSubmissions() ([]*Submission, error) {
	submissions, err := s.db.ListSubmissions()
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return submissions, nil
}
