package enrollment

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/features/payment"
	"github.com/skillforge/marketplace-server-go/pkg/database"
	"github.com/skillforge/marketplace-server-go/pkg/pagination"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

// Enrollment is one student's ledger row for one course. A student has
// at most one row per course; progress and payment state live here, not
// on the user or the course.
type Enrollment struct {
	types.BaseModel

	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_student_course;column:student_id" json:"studentId"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_student_course;index;column:course_id" json:"courseId"`

	Paid                bool       `gorm:"not null;default:false" json:"paid"`
	Progress            int        `gorm:"not null;default:0" json:"progress"`
	CompletedSectionIDs []string   `gorm:"serializer:json;column:completed_section_ids" json:"completedSectionIds"`
	LastSectionIndex    int        `gorm:"not null;default:0;column:last_section_index" json:"lastSectionIndex"`
	CompletedAt         *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`

	Course *course.Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string { return "enrollments" }

// Enroll creates a ledger row for the student. Free courses are marked
// paid immediately; paid courses start unpaid until Pay completes.
func Enroll(db *gorm.DB, actor types.Actor, courseID uuid.UUID) (*Enrollment, error) {
	crs, err := course.Get(db, courseID)
	if err != nil {
		return nil, err
	}

	var existing Enrollment
	err = db.First(&existing, "student_id = ? AND course_id = ?", actor.ID, courseID).Error
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enr := &Enrollment{
		StudentID:           actor.ID,
		CourseID:            courseID,
		Paid:                crs.Price.IsZero(),
		CompletedSectionIDs: []string{},
	}

	if err := db.Create(enr).Error; err != nil {
		// A concurrent enroll can slip past the existence check; the
		// unique index turns the race into the same conflict answer.
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}

	return enr, nil
}

// Pay settles an unpaid enrollment at the course's current price and
// appends a ledger row. The flip and the record land atomically.
func Pay(db *gorm.DB, actor types.Actor, courseID uuid.UUID) (*Enrollment, *payment.Record, error) {
	var enr Enrollment
	var rec *payment.Record

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&enr, "student_id = ? AND course_id = ?", actor.ID, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return err
		}

		if enr.Paid {
			return ErrAlreadyPaid
		}

		crs, err := course.Get(tx, courseID)
		if err != nil {
			return err
		}

		rec, err = payment.Create(tx, payment.CreateInput{
			StudentID: actor.ID,
			CourseID:  courseID,
			Amount:    crs.Price,
		})
		if err != nil {
			return err
		}

		enr.Paid = true
		return tx.Model(&enr).Update("paid", true).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return &enr, rec, nil
}

// ProgressInput carries a progress update. LastSectionIndex is recorded
// unconditionally; Completed marks the section at that position done.
type ProgressInput struct {
	LastSectionIndex int
	Completed        bool
}

// UpdateProgress advances the student's position in a course. The
// percentage is recomputed from the course's current section count, and
// CompletedAt is stamped the first time the course reaches 100 percent
// and never cleared afterwards.
func UpdateProgress(db *gorm.DB, actor types.Actor, courseID uuid.UUID, input ProgressInput) (*Enrollment, error) {
	if input.LastSectionIndex < 0 {
		return nil, ErrInvalidSection
	}

	var enr Enrollment
	if err := db.First(&enr, "student_id = ? AND course_id = ?", actor.ID, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	enr.LastSectionIndex = input.LastSectionIndex

	total, err := course.SectionCount(db, courseID)
	if err != nil {
		return nil, err
	}

	if input.Completed && total > 0 {
		section, err := course.SectionByPosition(db, courseID, input.LastSectionIndex)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidSection
			}
			return nil, err
		}

		id := section.ID.String()
		if !containsID(enr.CompletedSectionIDs, id) {
			enr.CompletedSectionIDs = append(enr.CompletedSectionIDs, id)
		}
	}

	if total > 0 {
		done := len(enr.CompletedSectionIDs)
		enr.Progress = int(math.Round(100 * float64(done) / float64(total)))
	} else {
		enr.Progress = 0
	}

	if enr.Progress >= 100 && enr.CompletedAt == nil {
		now := time.Now()
		enr.CompletedAt = &now
	}

	if err := db.Omit("Course").Save(&enr).Error; err != nil {
		return nil, err
	}

	return &enr, nil
}

// ListForStudent returns a student's enrollments with course details.
func ListForStudent(db *gorm.DB, studentID uuid.UUID) ([]Enrollment, error) {
	var enrollments []Enrollment
	err := db.
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// ListForCourse returns a page of enrollments for one course. Callers
// gate access: course owners and admins only.
func ListForCourse(db *gorm.DB, courseID uuid.UUID, params pagination.Params) ([]Enrollment, int64, error) {
	query := db.Model(&Enrollment{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []Enrollment
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&enrollments).Error

	return enrollments, total, err
}

// ListAll returns a page of every enrollment on the platform.
func ListAll(db *gorm.DB, params pagination.Params) ([]Enrollment, int64, error) {
	var total int64
	if err := db.Model(&Enrollment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []Enrollment
	err := db.
		Preload("Course").
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&enrollments).Error

	return enrollments, total, err
}

// Get fetches one enrollment by the student and course pair.
func Get(db *gorm.DB, studentID, courseID uuid.UUID) (*Enrollment, error) {
	var enr Enrollment
	err := db.First(&enr, "student_id = ? AND course_id = ?", studentID, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	return &enr, nil
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
