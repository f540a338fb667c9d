package payment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/pkg/pagination"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

// Record is one row of the append-only payment ledger. Records are
// never updated or deleted, even when the paying user or the course is
// later removed.
type Record struct {
	types.BaseModel

	StudentID     uuid.UUID           `gorm:"type:uuid;not null;index;column:student_id" json:"studentId"`
	CourseID      uuid.UUID           `gorm:"type:uuid;not null;index;column:course_id" json:"courseId"`
	Amount        types.Money         `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status        types.PaymentStatus `gorm:"type:varchar(20);not null;default:completed" json:"status"`
	TransactionID string              `gorm:"type:varchar(50);not null;uniqueIndex;column:transaction_id" json:"transactionId"`
}

func (Record) TableName() string { return "payment_records" }

// NewTransactionID mints an external reference for a ledger row.
func NewTransactionID() string {
	return "TXN-" + uuid.NewString()
}

// CreateInput carries data for recording a completed payment.
type CreateInput struct {
	StudentID uuid.UUID
	CourseID  uuid.UUID
	Amount    types.Money
}

// Create appends a completed payment to the ledger.
func Create(db *gorm.DB, input CreateInput) (*Record, error) {
	rec := &Record{
		StudentID:     input.StudentID,
		CourseID:      input.CourseID,
		Amount:        input.Amount,
		Status:        types.PaymentStatusCompleted,
		TransactionID: NewTransactionID(),
	}

	if err := db.Create(rec).Error; err != nil {
		return nil, err
	}

	return rec, nil
}

// ListFilters narrows ledger queries.
type ListFilters struct {
	StudentID *uuid.UUID
	CourseID  *uuid.UUID
}

// List returns a page of ledger rows, newest first.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Record, int64, error) {
	query := db.Model(&Record{})

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []Record
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&records).Error

	return records, total, err
}
