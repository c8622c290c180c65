package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"nup_registration/models"
	"nup_registration/services"
	"nup_registration/utils"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	msgFileRead   = "Gagal membaca file untuk diunggah. Coba ulangi atau kurangi ukuran file."
	msgUnexpected = "Terjadi kesalahan saat mengirim data."
	msgBusy       = "Data sedang dikirim, mohon tunggu."
)

type NUPHandler struct {
	store       services.SessionStore
	identifiers *services.IdentifierGenerator
	forms       *services.FormService
	attachments *services.AttachmentStore
	submissions *services.SubmissionService
	tokens      *services.JWTService
	receipts    services.ReceiptSink
}

func NewNUPHandler(
	store services.SessionStore,
	identifiers *services.IdentifierGenerator,
	forms *services.FormService,
	attachments *services.AttachmentStore,
	submissions *services.SubmissionService,
	tokens *services.JWTService,
	receipts services.ReceiptSink,
) *NUPHandler {
	return &NUPHandler{
		store:       store,
		identifiers: identifiers,
		forms:       forms,
		attachments: attachments,
		submissions: submissions,
		tokens:      tokens,
		receipts:    receipts,
	}
}

// FieldUpdateRequest carries one or more field values typed by the registrant.
type FieldUpdateRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

// AttachmentView describes a stored attachment without its storage key.
type AttachmentView struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// FormView is the form record as shown to the client. Its Files field
// shadows the record's own attachment list.
type FormView struct {
	models.FormRecord
	Files []AttachmentView `json:"files"`
}

type SessionView struct {
	ID          string             `json:"id"`
	Step        models.Step        `json:"step"`
	State       models.SubmitState `json:"state"`
	Identifiers models.Identifiers `json:"identifiers"`
	Record      FormView           `json:"record"`
	Errors      map[string]string  `json:"errors,omitempty"`
	ServerError string             `json:"serverError,omitempty"`
	ReceiptName string             `json:"receiptName,omitempty"`
}

func newAttachmentViews(files []models.Attachment) []AttachmentView {
	return lo.Map(files, func(a models.Attachment, _ int) AttachmentView {
		return AttachmentView{Name: a.Name, Type: a.Type, Size: a.Size}
	})
}

func newSessionView(s *models.Session) SessionView {
	view := SessionView{
		ID:          s.ID,
		Step:        s.Step,
		State:       s.State,
		Identifiers: s.Identifiers,
		Record:      FormView{FormRecord: s.Record, Files: newAttachmentViews(s.Record.Files)},
		Errors:      s.Errors,
		ServerError: s.ServerError,
	}
	if s.Receipt != nil {
		view.ReceiptName = s.Receipt.Name
	}
	return view
}

func (h *NUPHandler) HandleCreateSession(c echo.Context) error {
	ctx := c.Request().Context()
	session := &models.Session{
		ID:          services.NewSessionID(),
		Identifiers: h.identifiers.Generate(),
		Record:      models.NewFormRecord(),
		Step:        models.StepForm,
		State:       models.StateIdle,
		CreatedAt:   time.Now(),
	}

	if err := h.store.Save(ctx, session); err != nil {
		log.WithError(err).Error("Failed to store new session")
		return utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to start session", err.Error())
	}

	token, expiresAt, err := h.tokens.GenerateSessionToken(session.ID, session.Identifiers.NomorNUP)
	if err != nil {
		return utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to generate session token", err.Error())
	}

	log.WithFields(log.Fields{"session": session.ID, "nup": session.Identifiers.NomorNUP}).Info("Started NUP session")
	return utils.CreatedResponse(c, "NUP session started", map[string]interface{}{
		"token":     token,
		"expiresAt": expiresAt,
		"session":   newSessionView(session),
	})
}

func (h *NUPHandler) HandleGetSession(c echo.Context) error {
	session, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Session retrieved successfully", newSessionView(session))
}

func (h *NUPHandler) HandleUpdateFields(c echo.Context) error {
	req := new(FieldUpdateRequest)
	if err := c.Bind(req); err != nil {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid input format", err.Error())
	}
	if err := c.Validate(req); err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", he.Message)
		}
		return utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err.Error())
	}

	var view SessionView
	err := h.withSession(c, func(session *models.Session) error {
		fields := lo.Keys(req.Fields)
		sort.Strings(fields)
		for _, field := range fields {
			if err := h.forms.Apply(&session.Record, field, req.Fields[field]); err != nil {
				return err
			}
		}
		view = newSessionView(session)
		return nil
	})
	if errors.Is(err, services.ErrUnknownField) {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Unknown form field", err.Error())
	}
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Form updated successfully", view)
}

func (h *NUPHandler) HandleBackToForm(c echo.Context) error {
	var view SessionView
	err := h.withSession(c, func(session *models.Session) error {
		session.Step = models.StepForm
		session.State = models.StateIdle
		view = newSessionView(session)
		return nil
	})
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Returned to form", view)
}

// HandleDiscardSession drops the session and the files uploaded for it.
func (h *NUPHandler) HandleDiscardSession(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	unlock, err := h.store.Lock(ctx, id)
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	defer unlock()

	if _, err := h.store.Get(ctx, id); err != nil {
		return sessionErrorResponse(c, err)
	}
	if err := h.attachments.Remove(id); err != nil {
		log.WithError(err).WithField("session", id).Warn("Failed to remove attachments")
	}
	if err := h.store.Delete(ctx, id); err != nil {
		return sessionErrorResponse(c, err)
	}

	log.WithField("session", id).Info("Discarded NUP session")
	return utils.SuccessResponse(c, "Session discarded", nil)
}

func (h *NUPHandler) HandleSubmit(c echo.Context) error {
	// Once started, a submission runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request().Context())
	id := c.Param("id")

	unlock, err := h.store.Lock(ctx, id)
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	defer unlock()

	session, err := h.store.Get(ctx, id)
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	if session.Step == models.StepThankYou {
		return utils.ErrorResponse(c, http.StatusConflict, "Registration already submitted", newSessionView(session))
	}

	result, submitErr := h.submissions.Submit(ctx, session)

	var validationErr *services.ValidationError
	var deliveryErr *services.DeliveryError
	status := http.StatusOK
	switch {
	case submitErr == nil:
	case errors.As(submitErr, &validationErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(submitErr, services.ErrFileRead):
		status = http.StatusUnprocessableEntity
		session.ServerError = msgFileRead
	case errors.As(submitErr, &deliveryErr):
		status = http.StatusBadGateway
		session.ServerError = deliveryErr.Error()
	default:
		log.WithError(submitErr).WithField("session", id).Error("Unexpected submission failure")
		status = http.StatusInternalServerError
		session.ServerError = msgUnexpected
	}

	if submitErr == nil {
		// The payload and the receipt carry the files now.
		if err := h.attachments.Remove(id); err != nil {
			log.WithError(err).WithField("session", id).Warn("Failed to remove submitted attachments")
		}
		session.Record.Files = []models.Attachment{}
	}

	if err := h.store.Save(ctx, session); err != nil {
		log.WithError(err).WithField("session", id).Error("Failed to store session after submit")
		return utils.ErrorResponse(c, http.StatusInternalServerError, msgUnexpected, nil)
	}

	if validationErr != nil {
		return utils.ErrorResponse(c, status, "Validation failed", validationErr.Fields)
	}
	if submitErr != nil {
		return utils.ErrorResponse(c, status, session.ServerError, nil)
	}

	return utils.SuccessResponse(c, "Terima kasih! Data Anda sudah kami terima.", map[string]interface{}{
		"session":     newSessionView(session),
		"receiptName": result.Receipt.Name,
		"receiptUrl":  fmt.Sprintf("/nup/%s/receipt", session.ID),
	})
}

func (h *NUPHandler) HandleDownloadReceipt(c echo.Context) error {
	ctx := c.Request().Context()
	session, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	if session.Receipt == nil {
		return utils.ErrorResponse(c, http.StatusNotFound, "No receipt for this session yet", nil)
	}

	if c.QueryParam("archive") != "" {
		linker, ok := h.receipts.(services.ReceiptLinker)
		if !ok || session.Receipt.ArchiveKey == "" {
			return utils.ErrorResponse(c, http.StatusNotFound, "Receipt archive does not provide download links", nil)
		}
		url, err := linker.DownloadURL(ctx, session.Receipt.ArchiveKey)
		if err != nil {
			return utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to generate signed URL", err.Error())
		}
		return c.Redirect(http.StatusFound, url)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", session.Receipt.Name))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, session.Receipt.Body)
}

// withSession runs fn on the locked session and stores the result.
func (h *NUPHandler) withSession(c echo.Context, fn func(session *models.Session) error) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	unlock, err := h.store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	session, err := h.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	return h.store.Save(ctx, session)
}

func sessionErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return utils.ErrorResponse(c, http.StatusNotFound, "Session not found or expired", nil)
	case errors.Is(err, services.ErrSessionBusy):
		return utils.ErrorResponse(c, http.StatusConflict, msgBusy, nil)
	default:
		log.WithError(err).Error("Session operation failed")
		return utils.ErrorResponse(c, http.StatusInternalServerError, msgUnexpected, nil)
	}
}
