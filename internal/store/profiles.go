package store

import (
	"database/sql"
	"fmt"

	"github.com/loftchat/loft/internal/types"
)

const profileColumns = `uid, display_name, email, avatar_url, avatar_path`

// UpsertProfile creates or replaces a directory record.
func (s *Store) UpsertProfile(p types.Profile) error {
	if p.UID == "" {
		return fmt.Errorf("upsert profile: uid required")
	}
	err := s.write(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO loft_profiles (uid, display_name, email, avatar_url, avatar_path)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(uid) DO UPDATE SET
				display_name = excluded.display_name,
				email = excluded.email,
				avatar_url = excluded.avatar_url,
				avatar_path = excluded.avatar_path
		`, p.UID, p.DisplayName, p.Email, nullString(p.AvatarURL), nullString(p.AvatarPath))
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns one directory record, or nil when not found.
func (s *Store) GetProfile(uid string) (*types.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM loft_profiles WHERE uid = ?`, uid)
	p, err := scanProfile(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// GetProfiles fetches directory records for the given uids. Missing
// uids are skipped, not errors; membership can reference users whose
// profile has not synced yet.
func (s *Store) GetProfiles(uids []string) ([]types.Profile, error) {
	profiles := make([]types.Profile, 0, len(uids))
	for _, uid := range uids {
		p, err := s.GetProfile(uid)
		if err != nil {
			return nil, err
		}
		if p != nil {
			profiles = append(profiles, *p)
		}
	}
	return profiles, nil
}

func scanProfile(scan func(...any) error) (types.Profile, error) {
	var p types.Profile
	var avatarURL, avatarPath sql.NullString
	if err := scan(&p.UID, &p.DisplayName, &p.Email, &avatarURL, &avatarPath); err != nil {
		return types.Profile{}, err
	}
	if avatarURL.Valid {
		p.AvatarURL = &avatarURL.String
	}
	if avatarPath.Valid {
		p.AvatarPath = &avatarPath.String
	}
	return p, nil
}
