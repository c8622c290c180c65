package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nup_registration/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const attachmentDir = "attachments"

// AttachmentStore keeps uploaded files on disk until the session is
// submitted, discarded or expires.
type AttachmentStore struct {
	root string
}

func NewAttachmentStore(root string) *AttachmentStore {
	return &AttachmentStore{root: root}
}

// Replace stores the accepted candidates under the session, discarding files
// stored for it before. The new files are written to a staging directory
// first; when any of them fails the previous files are left untouched.
func (s *AttachmentStore) Replace(sessionID string, files []FileCandidate) ([]models.Attachment, error) {
	sessionDir := filepath.Join(s.root, sessionID)
	staging := filepath.Join(sessionDir, "staging-"+uuid.New().String())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create attachment directory")
	}

	attachments := make([]models.Attachment, 0, len(files))
	for i, f := range files {
		base := fmt.Sprintf("%02d_%s", i, filepath.Base(f.Name))
		written, err := saveCandidate(filepath.Join(staging, base), f)
		if err != nil {
			os.RemoveAll(staging)
			return nil, errors.Wrapf(err, "failed to save %s", f.Name)
		}

		log.WithFields(log.Fields{"session": sessionID, "file": f.Name, "bytes": written}).Debug("Saved attachment")
		attachments = append(attachments, models.Attachment{
			Name: f.Name,
			Type: f.Type,
			Size: written,
			Key:  filepath.Join(sessionID, attachmentDir, base),
		})
	}

	dir := filepath.Join(sessionDir, attachmentDir)
	if err := os.RemoveAll(dir); err != nil {
		os.RemoveAll(staging)
		return nil, errors.Wrap(err, "failed to clear previous attachments")
	}
	if err := os.Rename(staging, dir); err != nil {
		os.RemoveAll(staging)
		return nil, errors.Wrap(err, "failed to commit attachments")
	}
	return attachments, nil
}

func saveCandidate(path string, f FileCandidate) (int64, error) {
	src, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	return io.Copy(dst, src)
}

func (s *AttachmentStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.root, key))
}

// Remove deletes everything stored for the session.
func (s *AttachmentStore) Remove(sessionID string) error {
	return os.RemoveAll(filepath.Join(s.root, sessionID))
}

// Sweep removes the files of every session the store no longer knows.
func (s *AttachmentStore) Sweep(ctx context.Context, sessions SessionStore) (int, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to list attachment directory")
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		_, err := sessions.Get(ctx, id)
		if !errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err := s.Remove(id); err != nil {
			log.WithError(err).WithField("session", id).Warn("Failed to remove orphaned attachments")
			continue
		}
		removed++
	}
	return removed, nil
}
