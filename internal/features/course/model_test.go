package course

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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

	if err := db.AutoMigrate(&Course{}, &Section{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// The enrollments table is referenced by Delete.
	if err := db.Exec(`CREATE TABLE enrollments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		course_id TEXT NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create enrollments table: %v", err)
	}

	return db
}

func teacherActor() types.Actor {
	return types.Actor{ID: uuid.New(), Role: types.RoleTeacher}
}

func adminActor() types.Actor {
	return types.Actor{ID: uuid.New(), Role: types.RoleAdmin}
}

func TestCreateCoercesNegativePriceToFree(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{
		Title:    "Intro to Go",
		Category: "programming",
		Price:    -25,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !crs.Price.IsZero() {
		t.Fatalf("expected zero price, got %s", crs.Price)
	}
	if crs.OwnerID != actor.ID {
		t.Fatalf("expected owner %s, got %s", actor.ID, crs.OwnerID)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	db := openTestDB(t)

	_, err := Create(db, teacherActor(), CreateInput{Title: "   ", Category: "misc"})
	if err != ErrTitleRequired {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestUpdateAppliesExplicitZeroPrice(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{Title: "Go Basics", Category: "programming", Price: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := Update(db, actor, crs.ID, UpdateInput{PriceProvided: true, Price: 0})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !updated.Price.IsZero() {
		t.Fatalf("expected free course after update, got %s", updated.Price)
	}
}

func TestUpdateLeavesOmittedFieldsAlone(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	desc := "deep dive"
	crs, err := Create(db, actor, CreateInput{
		Title:       "Concurrency",
		Category:    "programming",
		Price:       50,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "Concurrency Patterns"
	updated, err := Update(db, actor, crs.ID, UpdateInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != newTitle {
		t.Fatalf("expected title %q, got %q", newTitle, updated.Title)
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Fatalf("description changed unexpectedly: %v", updated.Description)
	}
	if updated.Price.Float64() != 50 {
		t.Fatalf("price changed unexpectedly: %s", updated.Price)
	}
}

func TestUpdateRejectsNegativePrice(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{Title: "Pricing", Category: "business", Price: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = Update(db, actor, crs.ID, UpdateInput{PriceProvided: true, Price: -1})
	if err != ErrNegativePrice {
		t.Fatalf("expected ErrNegativePrice, got %v", err)
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	db := openTestDB(t)

	crs, err := Create(db, teacherActor(), CreateInput{Title: "Owned", Category: "misc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := teacherActor()
	newTitle := "Hijacked"
	if _, err := Update(db, other, crs.ID, UpdateInput{Title: &newTitle}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Admins may update any course.
	if _, err := Update(db, adminActor(), crs.ID, UpdateInput{Title: &newTitle}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestAddSectionAppendsPositions(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{Title: "Video Course", Category: "misc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i, title := range []string{"first", "second", "third"} {
		section, err := AddSection(db, actor, crs.ID, SectionInput{Title: title, VideoRef: "vid-" + title})
		if err != nil {
			t.Fatalf("add section %q: %v", title, err)
		}
		if section.Position != i {
			t.Fatalf("expected position %d for %q, got %d", i, title, section.Position)
		}
	}

	loaded, err := Get(db, crs.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(loaded.Sections))
	}
}

func TestDeleteSectionKeepsRemainingPositions(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{Title: "Outline", Category: "misc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var sections []Section
	for _, title := range []string{"a", "b", "c"} {
		s, err := AddSection(db, actor, crs.ID, SectionInput{Title: title, VideoRef: "v-" + title})
		if err != nil {
			t.Fatalf("add section: %v", err)
		}
		sections = append(sections, s)
	}

	if err := DeleteSection(db, actor, crs.ID, sections[1].ID); err != nil {
		t.Fatalf("delete section: %v", err)
	}

	loaded, err := Get(db, crs.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(loaded.Sections))
	}
	if loaded.Sections[0].Position != 0 || loaded.Sections[1].Position != 2 {
		t.Fatalf("positions were reshuffled: %d, %d", loaded.Sections[0].Position, loaded.Sections[1].Position)
	}

	// Deleting an already removed section is not an error.
	if err := DeleteSection(db, actor, crs.ID, sections[1].ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestAddSectionAfterDeleteNeverReusesPositions(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{Title: "Outline", Category: "misc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var sections []Section
	for _, title := range []string{"a", "b", "c"} {
		s, err := AddSection(db, actor, crs.ID, SectionInput{Title: title, VideoRef: "v-" + title})
		if err != nil {
			t.Fatalf("add section: %v", err)
		}
		sections = append(sections, s)
	}

	if err := DeleteSection(db, actor, crs.ID, sections[1].ID); err != nil {
		t.Fatalf("delete section: %v", err)
	}

	// The surviving tail sits at position 2; a fresh append must land
	// past it, not on top of it.
	added, err := AddSection(db, actor, crs.ID, SectionInput{Title: "d", VideoRef: "v-d"})
	if err != nil {
		t.Fatalf("add section: %v", err)
	}
	if added.Position != 3 {
		t.Fatalf("expected position 3, got %d", added.Position)
	}

	resolved, err := SectionByPosition(db, crs.ID, 2)
	if err != nil {
		t.Fatalf("resolve position 2: %v", err)
	}
	if resolved.ID != sections[2].ID {
		t.Fatalf("position 2 resolved to the wrong section")
	}
}

func TestDeleteRemovesCourseAndSections(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	crs, err := Create(db, actor, CreateInput{Title: "Short Lived", Category: "misc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := AddSection(db, actor, crs.ID, SectionInput{Title: "only", VideoRef: "v"}); err != nil {
		t.Fatalf("add section: %v", err)
	}

	if err := Delete(db, actor, crs.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := Get(db, crs.ID); err != ErrCourseNotFound {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}

	count, err := SectionCount(db, crs.ID)
	if err != nil {
		t.Fatalf("section count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected sections purged, %d remain", count)
	}
}

func TestListSearchMatchesTitleAndCategoryCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	actor := teacherActor()

	seed := []CreateInput{
		{Title: "Advanced Go", Category: "Programming"},
		{Title: "Watercolor Painting", Category: "Art"},
		{Title: "Go To Market Strategy", Category: "Business"},
	}
	for _, input := range seed {
		if _, err := Create(db, actor, input); err != nil {
			t.Fatalf("create %q: %v", input.Title, err)
		}
	}

	params := pagination.Params{Page: 1, Limit: 10}

	results, total, err := List(db, ListFilters{Keyword: "go"}, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "go", total)
	}

	// The keyword searches titles only, never categories.
	_, total, err = List(db, ListFilters{Keyword: "programming"}, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected keyword to skip categories, got %d matches", total)
	}

	// Category filtering is a case-insensitive substring match.
	results, total, err = List(db, ListFilters{Category: "prog"}, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || results[0].Title != "Advanced Go" {
		t.Fatalf("expected partial category match, got total=%d", total)
	}

	results, total, err = List(db, ListFilters{Category: "ART"}, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || results[0].Title != "Watercolor Painting" {
		t.Fatalf("expected case-insensitive category match, got total=%d", total)
	}
}
