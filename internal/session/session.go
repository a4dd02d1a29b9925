// Package session owns the signed-in user and the per-session wiring:
// store, syncer, mention tracker, selection prefs, and blob store. One
// Session is constructed per signed-in user and torn down on sign-out.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loftchat/loft/internal/blob"
	"github.com/loftchat/loft/internal/mentions"
	"github.com/loftchat/loft/internal/realtime"
	"github.com/loftchat/loft/internal/selection"
	"github.com/loftchat/loft/internal/store"
	"github.com/loftchat/loft/internal/types"
)

// ErrNotSignedIn is returned when no identity file exists.
var ErrNotSignedIn = errors.New("not signed in; run 'loft login' first")

// Options locate the config and data directories. Zero values fall
// back to ~/.config/loft and ~/.local/share/loft.
type Options struct {
	ConfigDir string
	DataDir   string
}

func (o Options) resolve() (Options, error) {
	if o.ConfigDir != "" && o.DataDir != "" {
		return o, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return o, err
	}
	if o.ConfigDir == "" {
		o.ConfigDir = filepath.Join(home, ".config", "loft")
	}
	if o.DataDir == "" {
		o.DataDir = filepath.Join(home, ".local", "share", "loft")
	}
	return o, nil
}

func identityPath(configDir string) string {
	return filepath.Join(configDir, "identity.json")
}

// SignIn records the local identity and seeds the user's directory
// profile.
func SignIn(opts Options, profile types.Profile) error {
	opts, err := opts.resolve()
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if profile.UID == "" || profile.DisplayName == "" {
		return fmt.Errorf("sign in: uid and display name required")
	}
	if err := os.MkdirAll(opts.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(identityPath(opts.ConfigDir), data, 0o600); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	st, err := store.Open(filepath.Join(opts.DataDir, "loft.db"))
	if err != nil {
		return err
	}
	defer st.Close()
	return st.UpsertProfile(profile)
}

// Session is the live wiring for one signed-in user.
type Session struct {
	Identity types.Profile
	Store    *store.Store
	Syncer   *realtime.Syncer
	Tracker  *mentions.Tracker
	Prefs    *selection.Prefs
	Blobs    *blob.Store

	opts Options
}

// Open loads the identity and constructs the session.
func Open(opts Options) (*Session, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	data, err := os.ReadFile(identityPath(opts.ConfigDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	var identity types.Profile
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	st, err := store.Open(filepath.Join(opts.DataDir, "loft.db"))
	if err != nil {
		return nil, err
	}
	syncer, err := realtime.New(st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	blobs, err := blob.Open(filepath.Join(opts.DataDir, "blobs"))
	if err != nil {
		syncer.Close()
		_ = st.Close()
		return nil, err
	}

	tracker := mentions.NewTracker(st, syncer)
	tracker.SetViewer(identity)

	return &Session{
		Identity: identity,
		Store:    st,
		Syncer:   syncer,
		Tracker:  tracker,
		Prefs:    selection.NewPrefs(selection.OpenFileKV(filepath.Join(opts.ConfigDir, "selection.json"))),
		Blobs:    blobs,
		opts:     opts,
	}, nil
}

// Close tears the session down synchronously: tracker watchers first,
// then the syncer, then the store.
func (s *Session) Close() {
	s.Tracker.Close()
	s.Syncer.Close()
	_ = s.Store.Close()
}

// SignOut clears all persisted selection state for the user, removes
// the local identity, and closes the session.
func (s *Session) SignOut() error {
	clearErr := s.Prefs.ClearAll(s.Identity.UID)
	rmErr := os.Remove(identityPath(s.opts.ConfigDir))
	s.Close()
	if clearErr != nil {
		return fmt.Errorf("sign out: %w", clearErr)
	}
	if rmErr != nil && !os.IsNotExist(rmErr) {
		return fmt.Errorf("sign out: %w", rmErr)
	}
	return nil
}

// SetAvatar uploads a new avatar, updates the profile, and cleans up
// the superseded blob best-effort; a failed cleanup never blocks the
// profile update.
func (s *Session) SetAvatar(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	defer f.Close()

	ref, _, err := s.Blobs.Upload(filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	url := s.Blobs.DownloadURL(ref)

	oldRef := ""
	if s.Identity.AvatarPath != nil {
		oldRef = *s.Identity.AvatarPath
	}
	s.Identity.AvatarURL = &url
	s.Identity.AvatarPath = &ref
	if err := s.Store.UpsertProfile(s.Identity); err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	s.Blobs.DeleteBestEffort(oldRef)
	return nil
}
