package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/service"
)

// AdminHandler serves the staff directory over HTTP.
type AdminHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAdminHandler(userService *service.UserService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{userService: userService, logger: logger}
}

// ListAdmins mirrors the get_admins socket event: a store error yields an empty list.
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.userService.ListAdmins(c.Request.Context())
	if err != nil {
		h.logger.Error("list admins failed", zap.Error(err))
		admins = []models.AdminSummary{}
	}
	c.JSON(http.StatusOK, admins)
}
