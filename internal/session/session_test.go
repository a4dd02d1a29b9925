package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/loftchat/loft/internal/types"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		ConfigDir: filepath.Join(dir, "config"),
		DataDir:   filepath.Join(dir, "data"),
	}
}

func TestOpenWithoutIdentity(t *testing.T) {
	_, err := Open(testOptions(t))
	if !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("err = %v, want ErrNotSignedIn", err)
	}
}

func TestSignInOpenSignOut(t *testing.T) {
	opts := testOptions(t)
	profile := types.Profile{UID: "u-ada", DisplayName: "Ada", Email: "ada@example.com"}
	if err := SignIn(opts, profile); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	s, err := Open(opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Identity.UID != "u-ada" || s.Identity.DisplayName != "Ada" {
		t.Fatalf("identity = %+v", s.Identity)
	}

	// The directory profile was seeded at sign-in.
	got, err := s.Store.GetProfile("u-ada")
	if err != nil || got == nil || got.Email != "ada@example.com" {
		t.Fatalf("profile = %+v, err = %v", got, err)
	}

	if err := s.Prefs.PersistOrganization("u-ada", "org-1"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := s.SignOut(); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if _, err := os.Stat(filepath.Join(opts.ConfigDir, "identity.json")); !os.IsNotExist(err) {
		t.Error("identity survived sign-out")
	}
	if _, err := Open(opts); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("reopen after sign-out: %v", err)
	}
}

func TestSignInRequiresIdentityFields(t *testing.T) {
	if err := SignIn(testOptions(t), types.Profile{UID: "u-1"}); err == nil {
		t.Fatal("expected error for missing display name")
	}
}

func TestSetAvatarReplacesOldBlob(t *testing.T) {
	opts := testOptions(t)
	if err := SignIn(opts, types.Profile{UID: "u-ada", DisplayName: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	s, err := Open(opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	img := filepath.Join(t.TempDir(), "face.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	if err := s.SetAvatar(img); err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	first := *s.Identity.AvatarPath

	if err := s.SetAvatar(img); err != nil {
		t.Fatalf("set avatar again: %v", err)
	}
	second := *s.Identity.AvatarPath
	if first == second {
		t.Fatalf("avatar ref did not rotate: %q", first)
	}

	// The first blob was cleaned up best-effort.
	if _, err := os.Stat(filepath.Join(opts.DataDir, "blobs", first)); !os.IsNotExist(err) {
		t.Error("old avatar blob survived replacement")
	}

	got, err := s.Store.GetProfile("u-ada")
	if err != nil || got == nil || got.AvatarPath == nil || *got.AvatarPath != second {
		t.Fatalf("stored profile = %+v, err = %v", got, err)
	}
}
