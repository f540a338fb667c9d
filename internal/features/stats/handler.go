package stats

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/pkg/response"
)

// Handler processes stats HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a stats handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Overview returns the platform aggregate snapshot. Admin only.
func (h *Handler) Overview(c *gin.Context) {
	overview, err := Collect(h.db)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to collect stats", err)
		return
	}

	response.Success(c, http.StatusOK, overview, "", nil)
}
