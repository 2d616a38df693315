package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func completedRun(username string) *models.SyncRun {
	started := time.Now().UTC().Add(-time.Minute)
	run := models.NewSyncRun(0, username, started, time.Now().UTC())
	run.SetStatuses("completed", "completed")
	run.SetCounts(42, 1, 7)
	run.SetGapClosed(true)
	return run
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "listener", "token-abc")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("CreateRejectsMissingUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if err := repo.Create(models.NewUser(0, "", "token")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input error, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "listener", "token-abc")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Username() != "listener" {
			t.Errorf("expected username listener, got %s", retrieved.Username())
		}
		if retrieved.Token() != "token-abc" {
			t.Errorf("expected token carried through, got %s", retrieved.Token())
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "listener", "")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.GetByUsername("listener")
		if err != nil {
			t.Fatalf("failed to get user by username: %v", err)
		}
		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}

		if _, err := repo.GetByUsername("nobody"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected user not found, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "listener", "old-token")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		user.SetToken("new-token")
		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Token() != "new-token" {
			t.Errorf("expected rotated token, got %s", retrieved.Token())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "listener", "")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}
		if _, err := repo.Get(user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected user not found after delete, got %v", err)
		}
		if err := repo.Delete(user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected not found on double delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		for _, name := range []string{"alpha", "beta", "gamma"} {
			if err := repo.Create(models.NewUser(0, name, "")); err != nil {
				t.Fatalf("failed to create user %s: %v", name, err)
			}
		}

		users, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 3 {
			t.Fatalf("expected 3 users, got %d", len(users))
		}
		if users[0].Username() != "alpha" {
			t.Errorf("expected sequence ordering, got %s first", users[0].Username())
		}

		filtered, err := repo.List(map[string]any{"username": "beta"})
		if err != nil {
			t.Fatalf("failed to list filtered users: %v", err)
		}
		if len(filtered) != 1 || filtered[0].Username() != "beta" {
			t.Errorf("expected only beta, got %d users", len(filtered))
		}
	})
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("CreateAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := completedRun("listener")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.ListensStatus() != "completed" || retrieved.LikesStatus() != "completed" {
			t.Errorf("unexpected statuses: %s / %s", retrieved.ListensStatus(), retrieved.LikesStatus())
		}
		if retrieved.ListensCommitted() != 42 || retrieved.ListensSkipped() != 1 || retrieved.LikesCount() != 7 {
			t.Errorf("unexpected counts: %d / %d / %d",
				retrieved.ListensCommitted(), retrieved.ListensSkipped(), retrieved.LikesCount())
		}
		if !retrieved.GapClosed() {
			t.Error("expected gap closed flag persisted")
		}
	})

	t.Run("CreateRejectsMissingStatuses", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := models.NewSyncRun(0, "listener", time.Now(), time.Now())
		if err := repo.Create(run); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input error, got %v", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < 3; i++ {
			started := base.Add(time.Duration(i) * time.Minute)
			run := models.NewSyncRun(0, "listener", started, started.Add(30*time.Second))
			run.SetStatuses("completed", "completed")
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run %d: %v", i, err)
			}
		}

		runs, err := repo.List(map[string]any{"username": "listener"})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].StartedAt().After(runs[i-1].StartedAt()) {
				t.Error("expected newest-first ordering")
			}
		}

		limited, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("failed to list limited runs: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 runs with limit, got %d", len(limited))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := completedRun("listener")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete sync run: %v", err)
		}
		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("expected error getting deleted run")
		}

		runs, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected deleted run excluded from list, got %d", len(runs))
		}
	})
}

func TestNextSequenceIncrements(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "sync_runs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}
}
