package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/task-store/domain/task"
	"github.com/example/task-store/modules/cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupService creates a service over an in-memory SQLite database with
// caching disabled.
func setupService(t *testing.T) (*Service, *task.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	repo := task.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewService(repo, cache.NewNoop()), repo
}

func strPtr(s string) *string { return &s }

func statusPtr(s task.Status) *task.Status { return &s }

func TestService_Create(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	t.Run("defaults status to Pending", func(t *testing.T) {
		created, err := svc.Create(ctx, &task.CreateTaskRequest{Title: "Buy milk"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if created.ID == 0 {
			t.Error("created task should have non-zero ID")
		}
		if created.Status != task.StatusPending {
			t.Errorf("Status = %q, want %q", created.Status, task.StatusPending)
		}
		if created.Description != nil {
			t.Errorf("Description = %q, want nil", *created.Description)
		}
		if !created.UpdatedAt.Equal(created.CreatedAt) {
			t.Errorf("UpdatedAt = %v, want equal to CreatedAt %v", created.UpdatedAt, created.CreatedAt)
		}
	})

	t.Run("accepts explicit status and description", func(t *testing.T) {
		created, err := svc.Create(ctx, &task.CreateTaskRequest{
			Title:       "Write report",
			Description: strPtr("quarterly numbers"),
			Status:      statusPtr(task.StatusCompleted),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if created.Status != task.StatusCompleted {
			t.Errorf("Status = %q, want %q", created.Status, task.StatusCompleted)
		}
		if created.Description == nil || *created.Description != "quarterly numbers" {
			t.Errorf("Description = %v, want %q", created.Description, "quarterly numbers")
		}
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := svc.Create(ctx, &task.CreateTaskRequest{Title: "   "})
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create() error = %v, want ValidationError", err)
		}
		if len(verr.Fields) != 1 || verr.Fields[0].Field != "title" {
			t.Errorf("Fields = %+v, want single title error", verr.Fields)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := svc.Create(ctx, &task.CreateTaskRequest{
			Title:  "Bad status",
			Status: statusPtr(task.Status("Done")),
		})
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create() error = %v, want ValidationError", err)
		}
		if verr.Fields[0].Field != "status" {
			t.Errorf("Field = %q, want %q", verr.Fields[0].Field, "status")
		}
	})

	t.Run("collects multiple field errors", func(t *testing.T) {
		_, err := svc.Create(ctx, &task.CreateTaskRequest{
			Title:  "",
			Status: statusPtr(task.Status("nope")),
		})
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create() error = %v, want ValidationError", err)
		}
		if len(verr.Fields) != 2 {
			t.Errorf("len(Fields) = %d, want 2", len(verr.Fields))
		}
	})
}

func TestService_GetByID(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &task.CreateTaskRequest{Title: "Find me"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("returns the created task", func(t *testing.T) {
		got, _, err := svc.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.ID != created.ID || got.Title != created.Title || got.Status != created.Status {
			t.Errorf("GetByID() = %+v, want %+v", got, created)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := svc.GetByID(ctx, 9999)
		if !errors.Is(err, task.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_List(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	t.Run("empty store returns empty slice", func(t *testing.T) {
		tasks, _, err := svc.List(ctx, nil)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("List() = %v, want empty non-nil slice", tasks)
		}
	})

	titles := []struct {
		title  string
		status task.Status
	}{
		{"one", task.StatusPending},
		{"two", task.StatusCompleted},
		{"three", task.StatusPending},
	}
	for _, tt := range titles {
		if _, err := svc.Create(ctx, &task.CreateTaskRequest{Title: tt.title, Status: statusPtr(tt.status)}); err != nil {
			t.Fatalf("Create(%q) error = %v", tt.title, err)
		}
	}

	t.Run("unfiltered returns all ordered by id", func(t *testing.T) {
		tasks, _, err := svc.List(ctx, nil)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tasks) != 3 {
			t.Fatalf("len = %d, want 3", len(tasks))
		}
		for i := 1; i < len(tasks); i++ {
			if tasks[i-1].ID >= tasks[i].ID {
				t.Errorf("tasks not ordered by id: %d before %d", tasks[i-1].ID, tasks[i].ID)
			}
		}
	})

	t.Run("filter returns exactly the matching subset", func(t *testing.T) {
		tasks, _, err := svc.List(ctx, statusPtr(task.StatusCompleted))
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("len = %d, want 1", len(tasks))
		}
		if tasks[0].Title != "two" {
			t.Errorf("Title = %q, want %q", tasks[0].Title, "two")
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, _, err := svc.List(ctx, statusPtr(task.Status("Archived")))
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("List() error = %v, want ValidationError", err)
		}
	})
}

func TestService_Update(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &task.CreateTaskRequest{
		Title:       "Buy milk",
		Description: strPtr("2 liters"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("status change keeps other fields", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, &task.UpdateTaskRequest{
			Status: statusPtr(task.StatusCompleted),
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Status != task.StatusCompleted {
			t.Errorf("Status = %q, want %q", updated.Status, task.StatusCompleted)
		}
		if updated.Title != "Buy milk" {
			t.Errorf("Title = %q, want unchanged", updated.Title)
		}
		if updated.Description == nil || *updated.Description != "2 liters" {
			t.Errorf("Description = %v, want unchanged", updated.Description)
		}
	})

	t.Run("empty update only refreshes updated_at", func(t *testing.T) {
		before, _, err := svc.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}

		time.Sleep(10 * time.Millisecond)

		updated, err := svc.Update(ctx, created.ID, &task.UpdateTaskRequest{})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Title != before.Title || updated.Status != before.Status {
			t.Error("empty update changed fields")
		}
		if !updated.UpdatedAt.After(before.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, before.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(before.CreatedAt) {
			t.Errorf("CreatedAt changed: %v -> %v", before.CreatedAt, updated.CreatedAt)
		}
	})

	t.Run("present empty description clears it", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, &task.UpdateTaskRequest{
			Description: strPtr(""),
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Description == nil || *updated.Description != "" {
			t.Errorf("Description = %v, want empty string", updated.Description)
		}
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, &task.UpdateTaskRequest{Title: strPtr("")})
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Update() error = %v, want ValidationError", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, 9999, &task.UpdateTaskRequest{Title: strPtr("ghost")})
		if !errors.Is(err, task.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &task.CreateTaskRequest{Title: "Remove me"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("delete then get fails with not found", func(t *testing.T) {
		if err := svc.Delete(ctx, created.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		_, _, err := svc.GetByID(ctx, created.ID)
		if !errors.Is(err, task.ErrNotFound) {
			t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete unknown id", func(t *testing.T) {
		if err := svc.Delete(ctx, 9999); !errors.Is(err, task.ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_WeeklyCompletion(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		svc, _ := setupService(t)
		rows, _, err := svc.WeeklyCompletion(context.Background(), 4)
		if err != nil {
			t.Fatalf("WeeklyCompletion() error = %v", err)
		}
		if rows == nil || len(rows) != 0 {
			t.Errorf("rows = %v, want empty non-nil slice", rows)
		}
	})

	t.Run("single week with partial completion", func(t *testing.T) {
		svc, _ := setupService(t)
		ctx := context.Background()

		for i, status := range []task.Status{task.StatusPending, task.StatusCompleted, task.StatusPending} {
			if _, err := svc.Create(ctx, &task.CreateTaskRequest{
				Title:  "task",
				Status: statusPtr(status),
			}); err != nil {
				t.Fatalf("Create(#%d) error = %v", i, err)
			}
		}

		rows, _, err := svc.WeeklyCompletion(ctx, 4)
		if err != nil {
			t.Fatalf("WeeklyCompletion() error = %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("len(rows) = %d, want 1", len(rows))
		}

		wantYear, wantWeek := time.Now().ISOWeek()
		row := rows[0]
		if row.Year != wantYear || row.WeekNumber != wantWeek {
			t.Errorf("bucket = (%d, %d), want (%d, %d)", row.Year, row.WeekNumber, wantYear, wantWeek)
		}
		if row.TotalTasks != 3 {
			t.Errorf("TotalTasks = %d, want 3", row.TotalTasks)
		}
		if row.CompletedTasks != 1 {
			t.Errorf("CompletedTasks = %d, want 1", row.CompletedTasks)
		}
		if row.CompletionPercentage != 33.33 {
			t.Errorf("CompletionPercentage = %v, want 33.33", row.CompletionPercentage)
		}
	})

	t.Run("multiple weeks ordered ascending", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx := context.Background()

		// Seed one completed task last week and one pending task this
		// week directly through the repository so created_at differs.
		lastWeek := time.Now().AddDate(0, 0, -7)
		if err := repo.Create(ctx, &task.Task{
			Title:     "old",
			Status:    task.StatusCompleted,
			CreatedAt: lastWeek,
			UpdatedAt: lastWeek,
		}); err != nil {
			t.Fatalf("Create(old) error = %v", err)
		}
		if _, err := svc.Create(ctx, &task.CreateTaskRequest{Title: "new"}); err != nil {
			t.Fatalf("Create(new) error = %v", err)
		}

		rows, _, err := svc.WeeklyCompletion(ctx, 4)
		if err != nil {
			t.Fatalf("WeeklyCompletion() error = %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("len(rows) = %d, want 2", len(rows))
		}

		first, second := rows[0], rows[1]
		if first.Year > second.Year || (first.Year == second.Year && first.WeekNumber >= second.WeekNumber) {
			t.Errorf("rows not ordered: (%d,%d) before (%d,%d)",
				first.Year, first.WeekNumber, second.Year, second.WeekNumber)
		}
		if first.CompletionPercentage != 100.0 {
			t.Errorf("last week percentage = %v, want 100", first.CompletionPercentage)
		}
		if second.CompletionPercentage != 0.0 {
			t.Errorf("this week percentage = %v, want 0", second.CompletionPercentage)
		}
	})

	t.Run("window excludes older tasks", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx := context.Background()

		old := time.Now().AddDate(0, 0, -30)
		if err := repo.Create(ctx, &task.Task{
			Title:     "ancient",
			Status:    task.StatusPending,
			CreatedAt: old,
			UpdatedAt: old,
		}); err != nil {
			t.Fatalf("Create(ancient) error = %v", err)
		}

		rows, _, err := svc.WeeklyCompletion(ctx, 2)
		if err != nil {
			t.Fatalf("WeeklyCompletion() error = %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("len(rows) = %d, want 0", len(rows))
		}
	})

	t.Run("non-positive weeks falls back to default", func(t *testing.T) {
		svc, _ := setupService(t)
		ctx := context.Background()

		if _, err := svc.Create(ctx, &task.CreateTaskRequest{Title: "now"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		rows, _, err := svc.WeeklyCompletion(ctx, 0)
		if err != nil {
			t.Fatalf("WeeklyCompletion() error = %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("len(rows) = %d, want 1", len(rows))
		}
	})
}
