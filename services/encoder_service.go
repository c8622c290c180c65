package services

import (
	"context"
	"encoding/base64"
	"io"
	"strings"

	"nup_registration/models"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const defaultMediaType = "application/octet-stream"

var ErrFileRead = errors.New("failed to read attachment")

// FileReadError names the attachment that could not be read.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return "failed to read attachment " + e.Name + ": " + e.Err.Error()
}

func (e *FileReadError) Unwrap() error { return e.Err }

func (e *FileReadError) Is(target error) bool { return target == ErrFileRead }

type AttachmentOpener interface {
	Open(key string) (io.ReadCloser, error)
}

// encodeTask turns one attachment into its base64 form.
type encodeTask func(ctx context.Context) (models.EncodedFile, error)

type AttachmentEncoder struct {
	opener AttachmentOpener
}

func NewAttachmentEncoder(opener AttachmentOpener) *AttachmentEncoder {
	return &AttachmentEncoder{opener: opener}
}

// EncodeAll runs one task per attachment, in order and one at a time, so at
// most one file is being read. The first failure aborts the whole list.
func (e *AttachmentEncoder) EncodeAll(ctx context.Context, files []models.Attachment) ([]models.EncodedFile, error) {
	tasks := lo.Map(files, func(a models.Attachment, _ int) encodeTask {
		return e.task(a)
	})

	encoded := make([]models.EncodedFile, 0, len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := task(ctx)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, file)
	}
	return encoded, nil
}

func (e *AttachmentEncoder) task(a models.Attachment) encodeTask {
	return func(context.Context) (models.EncodedFile, error) {
		src, err := e.opener.Open(a.Key)
		if err != nil {
			return models.EncodedFile{}, &FileReadError{Name: a.Name, Err: err}
		}
		defer src.Close()

		var b strings.Builder
		enc := base64.NewEncoder(base64.StdEncoding, &b)
		if _, err := io.Copy(enc, src); err != nil {
			return models.EncodedFile{}, &FileReadError{Name: a.Name, Err: err}
		}
		if err := enc.Close(); err != nil {
			return models.EncodedFile{}, &FileReadError{Name: a.Name, Err: err}
		}

		mediaType := a.Type
		if mediaType == "" {
			mediaType = defaultMediaType
		}
		return models.EncodedFile{Name: a.Name, Type: mediaType, Base64: b.String()}, nil
	}
}
