// Package authtest provides a behavioral test suite for [auth.SessionStore] implementations.
package authtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/pixtape/internal/auth"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
)

// Credential returns a populated credential for subject.
func Credential(subject string) *models.Credential {
	return &models.Credential{
		SubjectID:    subject,
		DisplayName:  "User " + subject,
		Email:        subject + "@example.com",
		AccessToken:  "access-" + subject,
		RefreshToken: "refresh-" + subject,
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// StoreContract runs the shared [auth.SessionStore] behavior against stores created by newStore.
func StoreContract(t *testing.T, newStore func(t *testing.T) auth.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.Get(ctx, "nope"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Read After Write", func(t *testing.T) {
		store := newStore(t)
		cred := Credential("alice")

		if err := store.Set(ctx, "s1", cred); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.SubjectID != "alice" || got.AccessToken != cred.AccessToken || got.RefreshToken != cred.RefreshToken {
			t.Errorf("unexpected credential: %+v", got)
		}
		if !got.ExpiresAt.Equal(cred.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", cred.ExpiresAt, got.ExpiresAt)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := newStore(t)
		cred := Credential("bob")
		_ = store.Set(ctx, "s1", cred)

		cred.AccessToken = "rotated"
		if err := store.Set(ctx, "s1", cred); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, _ := store.Get(ctx, "s1")
		if got == nil || got.AccessToken != "rotated" {
			t.Errorf("expected rotated token, got %+v", got)
		}
	})

	t.Run("Optional Fields", func(t *testing.T) {
		store := newStore(t)
		cred := Credential("carol")
		cred.Email = ""
		cred.RefreshToken = ""
		_ = store.Set(ctx, "s1", cred)

		got, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Email != "" || got.RefreshToken != "" {
			t.Errorf("expected empty optional fields, got %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		_ = store.Set(ctx, "s1", Credential("dan"))

		if err := store.Delete(ctx, "s1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Get(ctx, "s1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected deleted session to be gone, got %v", err)
		}
		if err := store.Delete(ctx, "s1"); err != nil {
			t.Errorf("deleting twice should not fail, got %v", err)
		}
	})

	t.Run("FindBySubject Returns Latest", func(t *testing.T) {
		store := newStore(t)
		older := Credential("erin")
		newer := Credential("erin")
		newer.AccessToken = "newest"

		_ = store.Set(ctx, "old", older)
		_ = store.Set(ctx, "other", Credential("frank"))
		_ = store.Set(ctx, "new", newer)

		sid, got, err := store.FindBySubject(ctx, "erin")
		if err != nil {
			t.Fatalf("FindBySubject() error = %v", err)
		}
		if sid != "new" || got.AccessToken != "newest" {
			t.Errorf("expected latest credential under %q, got %q %+v", "new", sid, got)
		}

		if _, _, err := store.FindBySubject(ctx, "ghost"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound for unknown subject, got %v", err)
		}
	})

	t.Run("DeleteBySubject", func(t *testing.T) {
		store := newStore(t)
		_ = store.Set(ctx, "g1", Credential("gina"))
		_ = store.Set(ctx, "g2", Credential("gina"))
		_ = store.Set(ctx, "h1", Credential("hank"))

		if err := store.DeleteBySubject(ctx, "gina"); err != nil {
			t.Fatalf("DeleteBySubject() error = %v", err)
		}
		for _, sid := range []string{"g1", "g2"} {
			if _, err := store.Get(ctx, sid); !errors.Is(err, shared.ErrSessionNotFound) {
				t.Errorf("expected %s to be deleted, got %v", sid, err)
			}
		}
		if _, _, err := store.FindBySubject(ctx, "gina"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected no sessions left for gina, got %v", err)
		}
		if _, err := store.Get(ctx, "h1"); err != nil {
			t.Errorf("other subjects should be untouched: %v", err)
		}
		if err := store.DeleteBySubject(ctx, "ghost"); err != nil {
			t.Errorf("deleting an unknown subject should not fail, got %v", err)
		}
	})
}
