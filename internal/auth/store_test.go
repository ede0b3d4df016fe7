package auth_test

import (
	"context"
	"testing"

	"github.com/desertthunder/pixtape/internal/auth"
	"github.com/desertthunder/pixtape/internal/auth/authtest"
)

func TestMemoryStore(t *testing.T) {
	authtest.StoreContract(t, func(t *testing.T) auth.SessionStore { return auth.NewMemoryStore() })

	t.Run("Returns Copies", func(t *testing.T) {
		store := auth.NewMemoryStore()
		cred := authtest.Credential("zed")
		_ = store.Set(context.Background(), "s1", cred)

		cred.AccessToken = "mutated after set"
		got, _ := store.Get(context.Background(), "s1")
		if got.AccessToken != "access-zed" {
			t.Errorf("store should not alias caller's credential, got %s", got.AccessToken)
		}
	})

	t.Run("Rejects Empty Key", func(t *testing.T) {
		if err := auth.NewMemoryStore().Set(context.Background(), "", authtest.Credential("x")); err == nil {
			t.Error("expected error for empty session id")
		}
	})
}
