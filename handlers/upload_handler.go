package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"nup_registration/models"
	"nup_registration/services"
	"nup_registration/utils"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const attachmentFormField = "files"

// HandleSelectAttachments replaces the attachment list with the uploaded
// files that pass the type and size checks. Other files are dropped.
func (h *NUPHandler) HandleSelectAttachments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid multipart form data", err.Error())
	}

	candidates := lo.Map(form.File[attachmentFormField], func(fh *multipart.FileHeader, _ int) services.FileCandidate {
		return services.FileCandidate{
			Name: fh.Filename,
			Type: fh.Header.Get(echo.HeaderContentType),
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	})
	accepted := h.forms.SelectAttachments(candidates)

	var files []models.Attachment
	err = h.withSession(c, func(session *models.Session) error {
		stored, err := h.attachments.Replace(session.ID, accepted)
		if err != nil {
			return err
		}
		session.Record.Files = stored
		files = stored
		return nil
	})
	if err != nil {
		return sessionErrorResponse(c, err)
	}

	log.WithFields(log.Fields{
		"session":  c.Param("id"),
		"offered":  len(candidates),
		"accepted": len(accepted),
	}).Info("Attachments selected")

	return utils.SuccessResponse(c, "Attachments updated successfully", map[string]interface{}{
		"fileCount": len(files),
		"files":     newAttachmentViews(files),
	})
}
