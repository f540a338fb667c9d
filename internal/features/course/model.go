package course

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/pkg/pagination"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

// Course is a published offering in the catalog. EducatorLabel is the
// display name shown to students; OwnerID carries the managing account.
type Course struct {
	types.BaseModel

	OwnerID       uuid.UUID   `gorm:"type:uuid;not null;index;column:owner_id" json:"ownerId"`
	EducatorLabel string      `gorm:"type:varchar(120);not null;column:educator_label" json:"educator"`
	Title         string      `gorm:"type:varchar(200);not null" json:"title"`
	Description   *string     `gorm:"type:text" json:"description,omitempty"`
	Category      string      `gorm:"type:varchar(100);not null;index" json:"category"`
	Price         types.Money `gorm:"type:numeric(10,2);not null" json:"price"`
	Prerequisites *string     `gorm:"type:text" json:"prerequisites,omitempty"`
	ThumbnailRef  *string     `gorm:"type:text;column:thumbnail_ref" json:"thumbnail,omitempty"`

	Sections []Section `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

func (Course) TableName() string { return "courses" }

// Section is one video unit inside a course. Position is the zero-based
// slot in the course outline; progress tracking refers to sections by
// position, so positions are never reshuffled after a removal.
type Section struct {
	types.BaseModel

	CourseID uuid.UUID `gorm:"type:uuid;not null;index;column:course_id" json:"courseId"`
	Title    string    `gorm:"type:varchar(200);not null" json:"title"`
	VideoRef string    `gorm:"type:text;not null;column:video_ref" json:"videoRef"`
	Duration int       `gorm:"type:int;not null;default:0" json:"durationSeconds"`
	Position int       `gorm:"type:int;not null" json:"position"`
}

func (Section) TableName() string { return "course_sections" }

// ListFilters defines catalog query filters.
type ListFilters struct {
	Keyword  string
	Category string
	OwnerID  *uuid.UUID
}

// CreateInput carries data for publishing a new course.
type CreateInput struct {
	EducatorLabel string
	Title         string
	Description   *string
	Category      string
	Price         float64
	Prerequisites *string
	ThumbnailRef  *string
}

// UpdateInput captures mutable course fields. The Provided flags carry
// field presence so explicit nulls and zeroes apply.
type UpdateInput struct {
	EducatorLabel  *string
	Title          *string
	DescProvided   bool
	Description    *string
	Category       *string
	PriceProvided  bool
	Price          float64
	PrereqProvided bool
	Prerequisites  *string
	ThumbProvided  bool
	ThumbnailRef   *string
}

// SectionInput carries data for appending a section to a course.
type SectionInput struct {
	Title    string
	VideoRef string
	Duration int
}

// List retrieves paginated catalog courses. Both filters are
// case-insensitive substring matches: keyword against the title,
// category against the category.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Course, int64, error) {
	query := db.Model(&Course{})

	if filters.Keyword != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filters.Keyword)+"%")
	}

	if filters.Category != "" {
		query = query.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(filters.Category)+"%")
	}

	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []Course
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&courses).Error

	return courses, total, err
}

// Get retrieves a course with its sections in outline order.
func Get(db *gorm.DB, id uuid.UUID) (Course, error) {
	var c Course
	err := db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&c, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c, ErrCourseNotFound
		}
		return c, err
	}
	return c, nil
}

// Create publishes a new course owned by the actor. A missing or
// negative price is coerced to zero, making the course free.
func Create(db *gorm.DB, actor types.Actor, input CreateInput) (Course, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Course{}, ErrTitleRequired
	}

	price := input.Price
	if price < 0 {
		price = 0
	}

	label := strings.TrimSpace(input.EducatorLabel)
	if label == "" {
		label = "Unknown Educator"
	}

	c := Course{
		OwnerID:       actor.ID,
		EducatorLabel: label,
		Title:         input.Title,
		Description:   input.Description,
		Category:      strings.TrimSpace(input.Category),
		Price:         types.NewMoney(price),
		Prerequisites: input.Prerequisites,
		ThumbnailRef:  input.ThumbnailRef,
	}

	if err := db.Create(&c).Error; err != nil {
		return Course{}, err
	}

	return c, nil
}

// Update modifies an existing course. Only the owner or an admin may
// update; a provided negative price is rejected rather than coerced.
func Update(db *gorm.DB, actor types.Actor, id uuid.UUID, input UpdateInput) (Course, error) {
	c, err := Get(db, id)
	if err != nil {
		return c, err
	}

	if !actor.CanManage(c.OwnerID) {
		return c, ErrForbidden
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return c, ErrTitleRequired
		}
		c.Title = title
	}

	if input.EducatorLabel != nil {
		c.EducatorLabel = strings.TrimSpace(*input.EducatorLabel)
	}

	if input.Category != nil {
		c.Category = strings.TrimSpace(*input.Category)
	}

	if input.PriceProvided {
		if input.Price < 0 {
			return c, ErrNegativePrice
		}
		c.Price = types.NewMoney(input.Price)
	}

	if input.DescProvided {
		c.Description = input.Description
	}

	if input.PrereqProvided {
		c.Prerequisites = input.Prerequisites
	}

	if input.ThumbProvided {
		c.ThumbnailRef = input.ThumbnailRef
	}

	if err := db.Omit("Sections").Save(&c).Error; err != nil {
		return c, err
	}

	return c, nil
}

// Delete removes a course. Owners are blocked while students remain
// enrolled; admins bypass the check and the enrollment ledger rows for
// the course are purged in the same transaction.
func Delete(db *gorm.DB, actor types.Actor, id uuid.UUID) error {
	c, err := Get(db, id)
	if err != nil {
		return err
	}

	if !actor.CanManage(c.OwnerID) {
		return ErrForbidden
	}

	if !actor.IsAdmin() {
		var enrolled int64
		if err := db.Table("enrollments").Where("course_id = ?", id).Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled > 0 {
			return ErrHasEnrollments
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM enrollments WHERE course_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&Section{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Course{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCourseNotFound
		}
		return nil
	})
}

// AddSection appends a section at the end of the course outline.
func AddSection(db *gorm.DB, actor types.Actor, courseID uuid.UUID, input SectionInput) (Section, error) {
	c, err := Get(db, courseID)
	if err != nil {
		return Section{}, err
	}

	if !actor.CanManage(c.OwnerID) {
		return Section{}, ErrForbidden
	}

	input.Title = strings.TrimSpace(input.Title)
	input.VideoRef = strings.TrimSpace(input.VideoRef)
	if input.Title == "" || input.VideoRef == "" {
		return Section{}, ErrSectionRequired
	}

	if input.Duration < 0 {
		input.Duration = 0
	}

	// Positions of deleted sections are never reused, so the next slot
	// comes from the highest surviving position rather than the count.
	var next int
	err = db.Model(&Section{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), -1) + 1").
		Scan(&next).Error
	if err != nil {
		return Section{}, err
	}

	section := Section{
		CourseID: courseID,
		Title:    input.Title,
		VideoRef: input.VideoRef,
		Duration: input.Duration,
		Position: next,
	}

	if err := db.Create(&section).Error; err != nil {
		return Section{}, err
	}

	return section, nil
}

// DeleteSection removes a section from the outline. Removing a section
// that is already gone is not an error; remaining positions keep their
// values so recorded progress stays aligned.
func DeleteSection(db *gorm.DB, actor types.Actor, courseID, sectionID uuid.UUID) error {
	c, err := Get(db, courseID)
	if err != nil {
		return err
	}

	if !actor.CanManage(c.OwnerID) {
		return ErrForbidden
	}

	return db.Where("id = ? AND course_id = ?", sectionID, courseID).Delete(&Section{}).Error
}

// SectionCount returns the number of sections a course currently has.
func SectionCount(db *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&Section{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// SectionByPosition resolves a section of a course by outline position.
func SectionByPosition(db *gorm.DB, courseID uuid.UUID, position int) (Section, error) {
	var s Section
	err := db.First(&s, "course_id = ? AND position = ?", courseID, position).Error
	return s, err
}

// ListByOwner retrieves all courses managed by one account.
func ListByOwner(db *gorm.DB, ownerID uuid.UUID) ([]Course, error) {
	var courses []Course
	err := db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}
