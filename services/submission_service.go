package services

import (
	"context"
	"encoding/json"
	"time"

	"nup_registration/models"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// SubmissionConfig is fixed at construction. Transport is nil when no web
// app endpoint has been configured, in which case remote delivery is skipped.
type SubmissionConfig struct {
	Transport Transport
	Receipts  ReceiptSink
	Notifier  Notifier
	Now       func() time.Time
}

type SubmissionService struct {
	validator *FormValidator
	encoder   *AttachmentEncoder
	transport Transport
	receipts  ReceiptSink
	notifier  Notifier
	now       func() time.Time
}

// DeliveryError wraps the error of the last failed delivery strategy.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }

type SubmitResult struct {
	Payload models.Payload
	Receipt models.Receipt
}

func NewSubmissionService(validator *FormValidator, encoder *AttachmentEncoder, cfg SubmissionConfig) *SubmissionService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SubmissionService{
		validator: validator,
		encoder:   encoder,
		transport: cfg.Transport,
		receipts:  cfg.Receipts,
		notifier:  cfg.Notifier,
		now:       now,
	}
}

// Submit runs the whole pipeline for a session and records the outcome on it.
// The caller must hold the session lock for the duration of the call.
//
// Errors: *ValidationError when the record is rejected (nothing is sent),
// an error matching ErrFileRead when an attachment cannot be read (state goes
// back to idle, nothing is sent), *DeliveryError when every delivery strategy
// failed, or any other error for unexpected failures.
// The form record is never modified.
func (s *SubmissionService) Submit(ctx context.Context, session *models.Session) (*SubmitResult, error) {
	logger := log.WithFields(log.Fields{"session": session.ID, "nup": session.Identifiers.NomorNUP})
	session.ServerError = ""

	session.State = models.StateValidating
	fieldErrors := s.validator.Validate(session.Record)
	session.Errors = fieldErrors
	if len(fieldErrors) > 0 {
		session.State = models.StateRejected
		logger.WithField("fields", lo.Keys(fieldErrors)).Info("Submission rejected by validation")
		return nil, &ValidationError{Fields: fieldErrors}
	}

	session.State = models.StateSubmitting

	encoded, err := s.encoder.EncodeAll(ctx, session.Record.Files)
	if err != nil {
		session.State = models.StateIdle
		logger.WithError(err).Warn("Attachment encoding failed")
		return nil, err
	}

	payload := s.buildPayload(session, encoded)
	if log.IsLevelEnabled(log.DebugLevel) {
		logger.Debug(spew.Sdump(payload.Identitas, payload.InfoNUP, payload.Ketentuan))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		session.State = models.StateFailed
		return nil, errors.Wrap(err, "failed to serialize payload")
	}

	if s.transport == nil {
		logger.Warn("Web app endpoint not configured, skipping remote delivery")
	} else if err := s.transport.Deliver(ctx, body); err != nil {
		session.State = models.StateFailed
		logger.WithError(err).Error("Delivery to web app failed")
		return nil, &DeliveryError{Err: err}
	}

	receipt, err := s.offerReceipt(ctx, session, payload)
	if err != nil {
		session.State = models.StateFailed
		logger.WithError(err).Error("Receipt could not be offered")
		return nil, err
	}

	session.State = models.StateDelivered
	session.Step = models.StepThankYou
	session.Receipt = receipt
	logger.WithField("files", payload.TTD.FileCount).Info("NUP registration delivered")

	if s.notifier != nil {
		if err := s.notifier.Notify(session); err != nil {
			logger.WithError(err).Warn("Notification failed")
		}
	}

	return &SubmitResult{Payload: payload, Receipt: *receipt}, nil
}

func (s *SubmissionService) buildPayload(session *models.Session, encoded []models.EncodedFile) models.Payload {
	record := session.Record
	ids := session.Identifiers

	return models.Payload{
		FormTitle:       models.FormTitle,
		FormDescription: models.FormDescription,
		Timestamp:       s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Identitas: models.IdentitySection{
			Nama:           record.Nama,
			NoKTP:          record.Ktp,
			AlamatDomisili: record.Alamat,
			NoHPWA:         record.Hp,
			Email:          record.Email,
		},
		InfoNUP: models.NUPInfoSection{
			NomorNUP:              ids.NomorNUP,
			TanggalDaftarNUP:      ids.TanggalDaftarNUP,
			JumlahNUPDibayarkanRp: record.JumlahNUP,
			CaraPembayaranNUP:     record.CaraBayar,
			TanggalReleaseNUP:     ids.TanggalReleaseNUP,
		},
		Ketentuan: models.TermsSection{
			KonfirmasiKehadiran:   record.Kehadiran,
			BatalMembeli:          models.BatalMembeli,
			PernyataanPersetujuan: record.SetujuKetentuan,
		},
		TTD: models.SignatureSection{
			FileCount: len(record.Files),
			FileNames: lo.Map(record.Files, func(a models.Attachment, _ int) string {
				return a.Name
			}),
			FilesBase64: encoded,
		},
	}
}

func (s *SubmissionService) offerReceipt(ctx context.Context, session *models.Session, payload models.Payload) (*models.Receipt, error) {
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize receipt")
	}

	receipt := &models.Receipt{
		Name: ReceiptFileName(session.Identifiers.NomorNUP),
		Body: pretty,
	}
	if s.receipts != nil {
		key, err := s.receipts.Offer(ctx, receipt.Name, pretty)
		if err != nil {
			return nil, err
		}
		receipt.ArchiveKey = key
	}
	return receipt, nil
}
