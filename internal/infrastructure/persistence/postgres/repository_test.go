package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookforge-api/internal/domain/entity"
)

// newTestClient 打开内存 SQLite 并完成建表
func newTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	client := NewClientWithDB(db)
	if err := client.Migrate(); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return client
}

func TestConceptUpsertIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	repo := NewConceptRepository(client)
	ctx := context.Background()

	set := entity.NewConceptSet("p1")
	set.ThesisStatement = "first"
	if err := repo.Upsert(ctx, set); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	set.ThesisStatement = "second"
	set.Concepts = []entity.BookConcept{{Title: "A"}}
	if err := repo.Upsert(ctx, set); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var count int64
	client.db.Model(&entity.ConceptSet{}).Where("project_id = ?", "p1").Count(&count)
	if count != 1 {
		t.Fatalf("expected single row per project, got %d", count)
	}

	got, err := repo.GetByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ThesisStatement != "second" || len(got.Concepts) != 1 {
		t.Errorf("upsert did not update fields: %+v", got)
	}
}

func TestChapterReplaceAllLeavesOnlyNewRows(t *testing.T) {
	client := newTestClient(t)
	repo := NewChapterRepository(client)
	ctx := context.Background()

	old := []*entity.Chapter{
		entity.NewChapter("p1", "Old One", 0),
		entity.NewChapter("p1", "Old Two", 1),
		entity.NewChapter("p1", "Old Three", 2),
	}
	if err := repo.ReplaceAll(ctx, "p1", old); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	replacement := []*entity.Chapter{
		entity.NewChapter("p1", "New One", 0),
		entity.NewChapter("p1", "New Two", 1),
	}
	if err := repo.ReplaceAll(ctx, "p1", replacement); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	chapters, err := repo.ListByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	for i, ch := range chapters {
		if ch.OrderIndex != i {
			t.Errorf("expected contiguous order, got index %d at position %d", ch.OrderIndex, i)
		}
		if ch.Title == "Old One" || ch.Title == "Old Two" || ch.Title == "Old Three" {
			t.Errorf("old chapter survived replace: %q", ch.Title)
		}
	}
}

func TestIncrementTokenUsageUpdatesBothCounters(t *testing.T) {
	client := newTestClient(t)
	repo := NewUserRepository(client)
	ctx := context.Background()

	user := entity.NewUser("writer@example.com", "Writer")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.IncrementTokenUsage(ctx, user.ID, 45000); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TokensUsed != 45000 || got.TokensThisMonth != 45000 {
		t.Errorf("expected both counters at 45000, got used=%d month=%d", got.TokensUsed, got.TokensThisMonth)
	}
}

func TestIncrementTokenUsageUnknownUser(t *testing.T) {
	client := newTestClient(t)
	repo := NewUserRepository(client)

	if err := repo.IncrementTokenUsage(context.Background(), "missing", 100); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestProjectOwnershipFilter(t *testing.T) {
	client := newTestClient(t)
	repo := NewProjectRepository(client)
	ctx := context.Background()

	project := entity.NewProject("owner", "golang")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetByIDAndUser(ctx, project.ID, "owner")
	if err != nil || got == nil {
		t.Fatalf("owner lookup failed: %v, %v", got, err)
	}

	other, err := repo.GetByIDAndUser(ctx, project.ID, "intruder")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other != nil {
		t.Error("project visible to non-owner")
	}
}

func TestProjectSoftDeleteHidesFromList(t *testing.T) {
	client := newTestClient(t)
	repo := NewProjectRepository(client)
	ctx := context.Background()

	project := entity.NewProject("u1", "golang")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Delete(ctx, project.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("soft-deleted project still visible")
	}
}

func TestCoverHistoryLatestFirst(t *testing.T) {
	client := newTestClient(t)
	repo := NewCoverRepository(client)
	ctx := context.Background()

	first := entity.NewCoverDesign("p1", "prompt one", "url1", "u/p/cover_1.png", "Minimalist")
	first.CreatedAt = time.Now().Add(-time.Hour)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	second := entity.NewCoverDesign("p1", "prompt two", "url2", "u/p/cover_2.png", "Vibrant")
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	covers, err := repo.ListByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(covers) != 2 {
		t.Fatalf("expected 2 covers, got %d", len(covers))
	}
	if covers[0].ID != second.ID {
		t.Errorf("expected latest cover first, got %q", covers[0].ImagePrompt)
	}
}
