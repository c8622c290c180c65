package handlers

import (
	"nup_registration/services"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, nupHandler *NUPHandler, tokens *services.JWTService) {
	e.GET("/config", HandleConfig)
	e.POST("/nup", nupHandler.HandleCreateSession)

	sessionGroup := e.Group("/nup/:id")
	sessionGroup.Use(SessionTokenMiddleware(tokens))
	sessionGroup.GET("", nupHandler.HandleGetSession)
	sessionGroup.DELETE("", nupHandler.HandleDiscardSession)
	sessionGroup.PATCH("/fields", nupHandler.HandleUpdateFields)
	sessionGroup.POST("/files", nupHandler.HandleSelectAttachments)
	sessionGroup.POST("/submit", nupHandler.HandleSubmit)
	sessionGroup.POST("/back", nupHandler.HandleBackToForm)
	sessionGroup.GET("/receipt", nupHandler.HandleDownloadReceipt)
}
