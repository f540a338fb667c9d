package enrollment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/features/payment"
	"github.com/skillforge/marketplace-server-go/pkg/pagination"
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

	if err := db.AutoMigrate(&course.Course{}, &course.Section{}, &Enrollment{}, &payment.Record{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func student() types.Actor {
	return types.Actor{ID: uuid.New(), Role: types.RoleStudent}
}

func seedCourse(t *testing.T, db *gorm.DB, price float64, sections int) (types.Actor, course.Course) {
	t.Helper()

	owner := types.Actor{ID: uuid.New(), Role: types.RoleTeacher}
	crs, err := course.Create(db, owner, course.CreateInput{
		Title:    "Seeded Course",
		Category: "testing",
		Price:    price,
	})
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}

	for i := 0; i < sections; i++ {
		if _, err := course.AddSection(db, owner, crs.ID, course.SectionInput{
			Title:    "section",
			VideoRef: "vid",
		}); err != nil {
			t.Fatalf("seed section %d: %v", i, err)
		}
	}

	return owner, crs
}

func TestEnrollFreeCourseIsPaidImmediately(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 2)
	actor := student()

	enr, err := Enroll(db, actor, crs.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if !enr.Paid {
		t.Fatalf("expected free course enrollment to be paid")
	}
	if enr.Progress != 0 || enr.CompletedAt != nil {
		t.Fatalf("expected fresh progress state")
	}
}

func TestEnrollPaidCourseStartsUnpaid(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 500, 1)

	enr, err := Enroll(db, student(), crs.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if enr.Paid {
		t.Fatalf("expected paid course enrollment to start unpaid")
	}
}

func TestEnrollTwiceConflicts(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 1)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if _, err := Enroll(db, actor, crs.ID); err != ErrAlreadyEnrolled {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestEnrollUnknownCourse(t *testing.T) {
	db := openTestDB(t)

	if _, err := Enroll(db, student(), uuid.New()); err != course.ErrCourseNotFound {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestPayRequiresEnrollment(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 500, 1)

	if _, _, err := Pay(db, student(), crs.ID); err != ErrNotEnrolled {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestPaySettlesAtCurrentPriceOnce(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 500, 1)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	enr, rec, err := Pay(db, actor, crs.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	if !enr.Paid {
		t.Fatalf("expected enrollment marked paid")
	}
	if rec.Amount.Float64() != 500 {
		t.Fatalf("expected amount 500, got %s", rec.Amount)
	}
	if rec.Status != types.PaymentStatusCompleted {
		t.Fatalf("expected completed status, got %s", rec.Status)
	}
	if len(rec.TransactionID) < 5 || rec.TransactionID[:4] != "TXN-" {
		t.Fatalf("unexpected transaction id %q", rec.TransactionID)
	}

	if _, _, err := Pay(db, actor, crs.ID); err != ErrAlreadyPaid {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	var count int64
	if err := db.Model(&payment.Record{}).Where("student_id = ?", actor.ID).Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single ledger row, got %d", count)
	}
}

func TestUpdateProgressWalksToCompletion(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 4)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	want := []int{25, 50, 75, 100}
	var completedAt *time.Time

	for i := 0; i < 4; i++ {
		enr, err := UpdateProgress(db, actor, crs.ID, ProgressInput{
			LastSectionIndex: i,
			Completed:        true,
		})
		if err != nil {
			t.Fatalf("progress step %d: %v", i, err)
		}
		if enr.Progress != want[i] {
			t.Fatalf("step %d: expected progress %d, got %d", i, want[i], enr.Progress)
		}
		if enr.LastSectionIndex != i {
			t.Fatalf("step %d: expected last index %d, got %d", i, i, enr.LastSectionIndex)
		}

		if i < 3 && enr.CompletedAt != nil {
			t.Fatalf("step %d: completed too early", i)
		}
		if i == 3 {
			if enr.CompletedAt == nil {
				t.Fatalf("expected CompletedAt at 100 percent")
			}
			completedAt = enr.CompletedAt
		}
	}

	// Re-completing a finished section changes nothing.
	enr, err := UpdateProgress(db, actor, crs.ID, ProgressInput{LastSectionIndex: 3, Completed: true})
	if err != nil {
		t.Fatalf("repeat progress: %v", err)
	}
	if enr.Progress != 100 {
		t.Fatalf("expected progress to stay at 100, got %d", enr.Progress)
	}
	if enr.CompletedAt == nil || !enr.CompletedAt.Equal(*completedAt) {
		t.Fatalf("CompletedAt changed on repeat completion")
	}
	if len(enr.CompletedSectionIDs) != 4 {
		t.Fatalf("expected 4 completed ids, got %d", len(enr.CompletedSectionIDs))
	}
}

func TestUpdateProgressWithoutCompletionOnlyMovesCursor(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 3)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	enr, err := UpdateProgress(db, actor, crs.ID, ProgressInput{LastSectionIndex: 2})
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if enr.LastSectionIndex != 2 {
		t.Fatalf("expected cursor at 2, got %d", enr.LastSectionIndex)
	}
	if enr.Progress != 0 || len(enr.CompletedSectionIDs) != 0 {
		t.Fatalf("expected no completion recorded")
	}
}

func TestUpdateProgressOnCourseWithoutSections(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 0)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	enr, err := UpdateProgress(db, actor, crs.ID, ProgressInput{LastSectionIndex: 0, Completed: true})
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if enr.Progress != 0 || len(enr.CompletedSectionIDs) != 0 {
		t.Fatalf("expected zero progress on sectionless course")
	}
}

func TestUpdateProgressRejectsUnknownPosition(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 2)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if _, err := UpdateProgress(db, actor, crs.ID, ProgressInput{LastSectionIndex: 9, Completed: true}); err != ErrInvalidSection {
		t.Fatalf("expected ErrInvalidSection, got %v", err)
	}
	if _, err := UpdateProgress(db, actor, crs.ID, ProgressInput{LastSectionIndex: -1}); err != ErrInvalidSection {
		t.Fatalf("expected ErrInvalidSection for negative index, got %v", err)
	}
}

func TestCourseDeleteBlockedForOwnerButAdminCascades(t *testing.T) {
	db := openTestDB(t)
	owner, crs := seedCourse(t, db, 0, 1)

	for i := 0; i < 3; i++ {
		if _, err := Enroll(db, student(), crs.ID); err != nil {
			t.Fatalf("enroll %d: %v", i, err)
		}
	}

	if err := course.Delete(db, owner, crs.ID); err != course.ErrHasEnrollments {
		t.Fatalf("expected ErrHasEnrollments for owner, got %v", err)
	}

	admin := types.Actor{ID: uuid.New(), Role: types.RoleAdmin}
	if err := course.Delete(db, admin, crs.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	var remaining int64
	if err := db.Model(&Enrollment{}).Where("course_id = ?", crs.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected enrollments purged, %d remain", remaining)
	}
}

func TestPaymentRecordsSurviveCourseDeletion(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 300, 1)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, _, err := Pay(db, actor, crs.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	admin := types.Actor{ID: uuid.New(), Role: types.RoleAdmin}
	if err := course.Delete(db, admin, crs.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	if err := db.Model(&payment.Record{}).Where("course_id = ?", crs.ID).Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected ledger row kept after deletion, got %d", count)
	}
}

func TestListForStudentIncludesCourse(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 1)
	actor := student()

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	enrollments, err := ListForStudent(db, actor.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enrollments) != 1 {
		t.Fatalf("expected 1 enrollment, got %d", len(enrollments))
	}
	if enrollments[0].Course == nil || enrollments[0].Course.ID != crs.ID {
		t.Fatalf("expected course preloaded")
	}
}

func TestListAllPaginates(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 1)

	for i := 0; i < 3; i++ {
		if _, err := Enroll(db, student(), crs.ID); err != nil {
			t.Fatalf("enroll %d: %v", i, err)
		}
	}

	enrollments, total, err := ListAll(db, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(enrollments) != 2 {
		t.Fatalf("expected page of 2, got %d", len(enrollments))
	}
}

func TestProgressReachesFullAfterSectionChurn(t *testing.T) {
	db := openTestDB(t)
	owner, crs := seedCourse(t, db, 0, 3)
	actor := student()

	loaded, err := course.Get(db, crs.ID)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if err := course.DeleteSection(db, owner, crs.ID, loaded.Sections[1].ID); err != nil {
		t.Fatalf("delete section: %v", err)
	}
	if _, err := course.AddSection(db, owner, crs.ID, course.SectionInput{
		Title:    "replacement",
		VideoRef: "vid",
	}); err != nil {
		t.Fatalf("add section: %v", err)
	}

	if _, err := Enroll(db, actor, crs.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	// Surviving positions after the churn are 0, 2 and 3.
	var enr *Enrollment
	for _, pos := range []int{0, 2, 3} {
		enr, err = UpdateProgress(db, actor, crs.ID, ProgressInput{LastSectionIndex: pos, Completed: true})
		if err != nil {
			t.Fatalf("complete position %d: %v", pos, err)
		}
	}

	if enr.Progress != 100 {
		t.Fatalf("expected full progress, got %d%%", enr.Progress)
	}
	if enr.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}
}

func TestEnrollMapsIndexViolationFromConcurrentInsert(t *testing.T) {
	db := openTestDB(t)
	_, crs := seedCourse(t, db, 0, 1)
	actor := student()

	// Land a rival row after Enroll's existence check but before its
	// insert, the way a concurrent request would.
	raced := false
	err := db.Callback().Create().Before("gorm:begin_transaction").Register("test:concurrent_enroll", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*Enrollment); !ok {
			return
		}
		raced = true

		rival := Enrollment{
			StudentID:           actor.ID,
			CourseID:            crs.ID,
			Paid:                true,
			CompletedSectionIDs: []string{},
		}
		if err := db.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			t.Errorf("rival insert: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := Enroll(db, actor, crs.ID); err != ErrAlreadyEnrolled {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}

	var count int64
	if err := db.Model(&Enrollment{}).Where("student_id = ?", actor.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single enrollment row, got %d", count)
	}
}
