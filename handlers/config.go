package handlers

import (
	"nup_registration/models"
	"nup_registration/services"
	"nup_registration/utils"

	"github.com/labstack/echo/v4"
)

func HandleConfig(c echo.Context) error {
	configData := map[string]interface{}{
		"formTitle":          models.FormTitle,
		"formDescription":    models.FormDescription,
		"batalMembeli":       models.BatalMembeli,
		"paymentMethods":     models.PaymentMethods,
		"attendanceOptions":  models.Attendances,
		"acceptedMediaTypes": services.AcceptedMediaTypes,
		"acceptedExtensions": []string{".jpg", ".jpeg", ".png", ".pdf"},
		"maxFileSize":        services.MaxAttachmentSize,
		"confirmationPhrase": services.ConfirmationPhrase,
	}
	return utils.SuccessResponse(c, "Configuration retrieved successfully", configData)
}
