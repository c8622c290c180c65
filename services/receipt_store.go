package services

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

var receiptUnsafe = regexp.MustCompile(`[^A-Za-z0-9-]`)

// ReceiptFileName is the download name of the JSON receipt for a NUP number.
func ReceiptFileName(nomorNUP string) string {
	return receiptUnsafe.ReplaceAllString(nomorNUP, "_") + ".json"
}

// ReceiptSink is offered the JSON receipt of every delivered registration.
// It returns the key the receipt was archived under.
type ReceiptSink interface {
	Offer(ctx context.Context, name string, body []byte) (string, error)
}

// ReceiptLinker is implemented by sinks that can hand out a temporary download link.
type ReceiptLinker interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

type LocalReceiptStore struct {
	dir string
}

func NewLocalReceiptStore(dir string) (*LocalReceiptStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create receipt directory")
	}
	return &LocalReceiptStore{dir: dir}, nil
}

func (s *LocalReceiptStore) Offer(_ context.Context, name string, body []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write receipt %s", name)
	}
	return path, nil
}
