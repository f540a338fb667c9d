package stats

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/features/enrollment"
	"github.com/skillforge/marketplace-server-go/internal/features/payment"
	"github.com/skillforge/marketplace-server-go/internal/features/user"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	models := []interface{}{
		&user.User{},
		&course.Course{},
		&course.Section{},
		&enrollment.Enrollment{},
		&payment.Record{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func TestCollectOnEmptyDatabase(t *testing.T) {
	db := openTestDB(t)

	o, err := Collect(db)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if o.TotalUsers != 0 || o.TotalCourses != 0 || o.TotalEnrollments != 0 {
		t.Fatalf("expected zero counts, got %+v", o)
	}
	if !o.TotalRevenue.IsZero() {
		t.Fatalf("expected zero revenue, got %s", o.TotalRevenue)
	}
}

func TestCollectSumsCompletedPaymentsOnly(t *testing.T) {
	db := openTestDB(t)

	teacher, err := user.Create(db, user.CreateInput{
		FullName: "Educator",
		Email:    "educator@example.com",
		Password: "password1",
		Role:     types.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}

	studentA, err := user.Create(db, user.CreateInput{
		FullName: "Student A",
		Email:    "a@example.com",
		Password: "password1",
		Role:     types.RoleStudent,
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}

	owner := types.Actor{ID: teacher.ID, Role: types.RoleTeacher}
	crs, err := course.Create(db, owner, course.CreateInput{
		Title:    "Paid Course",
		Category: "testing",
		Price:    250,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	actor := types.Actor{ID: studentA.ID, Role: types.RoleStudent}
	if _, err := enrollment.Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, _, err := enrollment.Pay(db, actor, crs.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	// A failed record must not count toward revenue.
	failed := payment.Record{
		StudentID:     studentA.ID,
		CourseID:      crs.ID,
		Amount:        types.NewMoney(999),
		Status:        types.PaymentStatusFailed,
		TransactionID: "TXN-" + uuid.NewString(),
	}
	if err := db.Create(&failed).Error; err != nil {
		t.Fatalf("insert failed record: %v", err)
	}

	o, err := Collect(db)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if o.TotalUsers != 2 {
		t.Fatalf("expected 2 users, got %d", o.TotalUsers)
	}
	if o.TotalCourses != 1 {
		t.Fatalf("expected 1 course, got %d", o.TotalCourses)
	}
	if o.TotalEnrollments != 1 {
		t.Fatalf("expected 1 enrollment, got %d", o.TotalEnrollments)
	}
	if o.TotalRevenue.Float64() != 250 {
		t.Fatalf("expected revenue 250, got %s", o.TotalRevenue)
	}
}
