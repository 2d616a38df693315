package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/repositories"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/desertthunder/lbx/internal/ui"
	"github.com/urfave/cli/v3"
)

// userSummaries builds the per-user archive stats shown by the list command
// and the TUI.
func (r *Runner) userSummaries() ([]ui.UserSummary, error) {
	names := map[string]struct{}{}

	if db, err := r.openDatabase(); err == nil {
		repo := repositories.NewUserRepository(db)
		if users, err := repo.List(map[string]any{}); err == nil {
			for _, user := range users {
				names[user.Username()] = struct{}{}
			}
		}
		db.Close()
	}

	// Archives synced before the user was registered still show up.
	cached, err := r.config.CachedUsernames()
	if err != nil {
		return nil, err
	}
	for _, name := range cached {
		names[name] = struct{}{}
	}
	if r.config.ListenBrainz.Username != "" {
		names[r.config.ListenBrainz.Username] = struct{}{}
	}

	var summaries []ui.UserSummary
	for name := range names {
		summary := ui.UserSummary{Username: name}
		if store, err := r.storeFor(name); err == nil {
			if listens, err := store.Listens(); err == nil {
				summary.Listens = len(listens)
			}
			if likes, err := store.Likes(); err == nil {
				summary.Likes = len(likes)
			}
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Username < summaries[j].Username
	})
	return summaries, nil
}

// UsersList lists registered users and their archive stats.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	summaries, err := r.userSummaries()
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		r.writePlain("No users registered. Run 'lbx users add <username>'\n")
		return nil
	}

	r.writePlainHeader("Users")
	for _, summary := range summaries {
		r.writePlain("%-24s %6d listens  %5d liked\n", summary.Username, summary.Listens, summary.Likes)
	}
	return nil
}

// UsersAdd registers a user and optional API token.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewUserRepository(db)
	if existing, err := repo.GetByUsername(username); err == nil {
		if token := cmd.String("token"); token != "" {
			existing.SetToken(token)
			if err := repo.Update(existing); err != nil {
				return err
			}
			r.writePlain("✓ Token updated for %s\n", username)
			return nil
		}
		return fmt.Errorf("%w: user %s already registered", shared.ErrInvalidInput, username)
	}

	user := models.NewUser(0, username, cmd.String("token"))
	if err := repo.Create(user); err != nil {
		return err
	}

	if _, err := r.config.UserCacheDir(username); err != nil {
		return err
	}

	r.writePlain("✓ Registered %s\n", username)
	return nil
}

// UsersRemove removes a registered user. The on-disk archive is kept.
func (r *Runner) UsersRemove(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewUserRepository(db)
	user, err := repo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
		}
		return err
	}

	if err := repo.Delete(user.ID()); err != nil {
		return err
	}

	r.writePlain("✓ Removed %s (archive left on disk)\n", username)
	return nil
}
