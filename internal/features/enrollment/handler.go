package enrollment

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/middleware"
	"github.com/skillforge/marketplace-server-go/pkg/pagination"
	"github.com/skillforge/marketplace-server-go/pkg/response"
)

// Handler processes enrollment HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs an enrollment handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Enroll creates an enrollment for the authenticated student.
func (h *Handler) Enroll(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req struct {
		CourseID string `json:"courseId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid enrollment payload", err)
		return
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	enr, err := Enroll(h.db, actor, courseID)
	if err != nil {
		h.respondError(c, err, "failed to enroll")
		return
	}

	response.Created(c, enr, "Enrolled")
}

// Pay settles an unpaid enrollment.
func (h *Handler) Pay(c *gin.Context) {
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

	enr, rec, err := Pay(h.db, actor, courseID)
	if err != nil {
		h.respondError(c, err, "payment failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"enrollment": enr,
		"payment":    rec,
	}, "Payment recorded", nil)
}

// UpdateProgress records the student's position in the course.
func (h *Handler) UpdateProgress(c *gin.Context) {
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

	var req struct {
		LastSectionIndex int  `json:"lastSectionIndex"`
		Completed        bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid progress payload", err)
		return
	}

	enr, err := UpdateProgress(h.db, actor, courseID, ProgressInput{
		LastSectionIndex: req.LastSectionIndex,
		Completed:        req.Completed,
	})
	if err != nil {
		h.respondError(c, err, "failed to update progress")
		return
	}

	response.Success(c, http.StatusOK, enr, "", nil)
}

// ListMine returns the authenticated student's enrollments.
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	enrollments, err := ListForStudent(h.db, actor.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, enrollments, "", nil)
}

// ListForCourse returns enrollments for a course. Course owner or admin.
func (h *Handler) ListForCourse(c *gin.Context) {
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

	crs, err := course.Get(h.db, courseID)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	if !actor.CanManage(crs.OwnerID) {
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, ErrForbidden.Error(), nil)
		return
	}

	params := pagination.Extract(c)
	enrollments, total, err := ListForCourse(h.db, courseID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, enrollments, "", pagination.MetadataFrom(total, params))
}

// ListAll returns every enrollment, paginated. Admin only.
func (h *Handler) ListAll(c *gin.Context) {
	params := pagination.Extract(c)

	enrollments, total, err := ListAll(h.db, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, enrollments, "", pagination.MetadataFrom(total, params))
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, course.ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found."
	case errors.Is(err, ErrNotEnrolled):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, ErrAlreadyPaid):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrInvalidSection):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
