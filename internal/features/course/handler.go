package course

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/middleware"
	"github.com/skillforge/marketplace-server-go/pkg/pagination"
	"github.com/skillforge/marketplace-server-go/pkg/request"
	"github.com/skillforge/marketplace-server-go/pkg/response"
)

// Handler processes course HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a course handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns paginated catalog courses with optional search.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)

	filters := ListFilters{
		Keyword:  c.Query("search"),
		Category: c.Query("category"),
	}

	courses, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	response.Success(c, http.StatusOK, courses, "", pagination.MetadataFrom(total, params))
}

// ListMine returns the courses managed by the authenticated user.
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	courses, err := ListByOwner(h.db, actor.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	response.Success(c, http.StatusOK, courses, "", nil)
}

// GetByID fetches a single course with its sections.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	response.Success(c, http.StatusOK, crs, "", nil)
}

type createRequest struct {
	Educator      string  `json:"educator"`
	Title         string  `json:"title" binding:"required"`
	Description   *string `json:"description"`
	Category      string  `json:"category" binding:"required"`
	Price         float64 `json:"price"`
	Prerequisites *string `json:"prerequisites"`
	Thumbnail     *string `json:"thumbnail"`
}

// Create publishes a new course.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	crs, err := Create(h.db, actor, CreateInput{
		EducatorLabel: req.Educator,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		Prerequisites: req.Prerequisites,
		ThumbnailRef:  req.Thumbnail,
	})
	if err != nil {
		h.respondError(c, err, "failed to create course")
		return
	}

	response.Created(c, crs, "")
}

// Update applies a partial update to a course.
func (h *Handler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	input := UpdateInput{}

	if value, ok := body["title"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "title must be a string", err)
			return
		}
		input.Title = &str
	}

	if value, ok := body["educator"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "educator must be a string", err)
			return
		}
		input.EducatorLabel = &str
	}

	if value, ok := body["category"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "category must be a string", err)
			return
		}
		input.Category = &str
	}

	if value, ok := body["price"]; ok {
		num, err := request.ReadFloat(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "price must be a number", err)
			return
		}
		input.PriceProvided = true
		input.Price = num
	}

	if value, ok := body["description"]; ok {
		input.DescProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "description must be a string", err)
				return
			}
			input.Description = &str
		}
	}

	if value, ok := body["prerequisites"]; ok {
		input.PrereqProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "prerequisites must be a string", err)
				return
			}
			input.Prerequisites = &str
		}
	}

	if value, ok := body["thumbnail"]; ok {
		input.ThumbProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "thumbnail must be a string", err)
				return
			}
			input.ThumbnailRef = &str
		}
	}

	crs, err := Update(h.db, actor, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update course")
		return
	}

	response.Success(c, http.StatusOK, crs, "", nil)
}

// Delete removes a course and its enrollment ledger rows.
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	if err := Delete(h.db, actor, id); err != nil {
		h.respondError(c, err, "failed to delete course")
		return
	}

	response.Success(c, http.StatusOK, true, "", nil)
}

type sectionRequest struct {
	Title    string `json:"title" binding:"required"`
	VideoRef string `json:"videoRef" binding:"required"`
	Duration int    `json:"durationSeconds"`
}

// AddSection appends a video section to the course outline.
func (h *Handler) AddSection(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid section payload", err)
		return
	}

	section, err := AddSection(h.db, actor, id, SectionInput{
		Title:    req.Title,
		VideoRef: req.VideoRef,
		Duration: req.Duration,
	})
	if err != nil {
		h.respondError(c, err, "failed to add section")
		return
	}

	response.Created(c, section, "")
}

// DeleteSection removes a section from the course outline.
func (h *Handler) DeleteSection(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	sectionID, err := uuid.Parse(c.Param("sectionId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid section id", err)
		return
	}

	if err := DeleteSection(h.db, actor, courseID, sectionID); err != nil {
		h.respondError(c, err, "failed to delete section")
		return
	}

	response.Success(c, http.StatusOK, true, "", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found."
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, ErrHasEnrollments):
		status = http.StatusConflict
		message = "Course has active enrollments and cannot be deleted."
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrNegativePrice),
		errors.Is(err, ErrSectionRequired):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
