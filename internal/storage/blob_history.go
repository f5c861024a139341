package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	historyPrefix     = "history/"
	historyTimeLayout = "20060102T150405.000000000Z"
)

// BlobHistoryStore keeps one JSON blob per analysis result, named
// history/<user>/<timestamp>.json so listings sort chronologically
type BlobHistoryStore struct {
	blobs BlobStore
}

// Ensure BlobHistoryStore implements HistoryStore
var _ HistoryStore = (*BlobHistoryStore)(nil)

// NewBlobHistoryStore creates a history store on top of blobs
func NewBlobHistoryStore(blobs BlobStore) *BlobHistoryStore {
	return &BlobHistoryStore{blobs: blobs}
}

// Append writes result as a new blob
func (s *BlobHistoryStore) Append(ctx context.Context, result models.AnalysisResult) error {
	if result.UserID == "" {
		return fmt.Errorf("analysis result has no user id")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	return s.blobs.Store(ctx, historyBlobName(result.UserID, result.CreatedAt), data)
}

// History returns the user's results created at or after since
func (s *BlobHistoryStore) History(ctx context.Context, userID string, since time.Time) ([]models.AnalysisResult, error) {
	return s.load(ctx, historyPrefix+url.PathEscape(userID)+"/", since)
}

// Since returns all users' results created at or after since
func (s *BlobHistoryStore) Since(ctx context.Context, since time.Time) ([]models.AnalysisResult, error) {
	return s.load(ctx, historyPrefix, since)
}

func (s *BlobHistoryStore) load(ctx context.Context, prefix string, since time.Time) ([]models.AnalysisResult, error) {
	names, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var results []models.AnalysisResult
	for _, name := range names {
		created, ok := parseHistoryBlobTime(name)
		if !ok {
			logrus.Warnf("Skipping unexpected history blob %s", name)
			continue
		}
		if created.Before(since) {
			continue
		}

		data, err := s.blobs.Retrieve(ctx, name)
		if isNotFound(err) {
			// removed between listing and download
			logrus.Debugf("History blob %s disappeared, skipping", name)
			continue
		}
		if err != nil {
			return nil, err
		}

		var result models.AnalysisResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func historyBlobName(userID string, created time.Time) string {
	return fmt.Sprintf("%s%s/%s.json", historyPrefix, url.PathEscape(userID), created.UTC().Format(historyTimeLayout))
}

func parseHistoryBlobTime(name string) (time.Time, bool) {
	base := strings.TrimSuffix(path.Base(name), ".json")
	created, err := time.Parse(historyTimeLayout, base)
	if err != nil {
		return time.Time{}, false
	}
	return created, true
}
