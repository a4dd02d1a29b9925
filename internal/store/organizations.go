package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/loftchat/loft/internal/types"
)

// CreateOrganization inserts a workspace. The creator is always added
// to the member list.
func (s *Store) CreateOrganization(name, creatorUID string) (types.Organization, error) {
	if name == "" {
		return types.Organization{}, fmt.Errorf("create organization: name required")
	}
	if creatorUID == "" {
		return types.Organization{}, fmt.Errorf("create organization: creator required")
	}

	var org types.Organization
	err := s.write(func(tx *sql.Tx) error {
		guid, err := generateUniqueGUID(tx, "loft_organizations", "org")
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()
		if _, err := tx.Exec(`
			INSERT INTO loft_organizations (guid, name, created_by, created_at)
			VALUES (?, ?, ?, ?)
		`, guid, name, creatorUID, now); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO loft_org_members (org_guid, uid) VALUES (?, ?)
		`, guid, creatorUID); err != nil {
			return err
		}
		org = types.Organization{ID: guid, Name: name, Members: []string{creatorUID}, CreatedBy: creatorUID}
		return nil
	})
	if err != nil {
		return types.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

// AddMember adds a user to an organization. Adding an existing member
// is a no-op.
func (s *Store) AddMember(orgID, uid string) error {
	err := s.write(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO loft_org_members (org_guid, uid) VALUES (?, ?)
		`, orgID, uid)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		return nil
	}
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// GetOrganization returns one organization with its member list, or
// nil when not found.
func (s *Store) GetOrganization(orgID string) (*types.Organization, error) {
	row := s.db.QueryRow(`
		SELECT guid, name, created_by FROM loft_organizations WHERE guid = ?
	`, orgID)
	var org types.Organization
	if err := row.Scan(&org.ID, &org.Name, &org.CreatedBy); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	members, err := s.orgMembers(org.ID)
	if err != nil {
		return nil, err
	}
	org.Members = members
	return &org, nil
}

// ListOrganizations returns the organizations the user belongs to,
// alphabetical by name.
func (s *Store) ListOrganizations(uid string) ([]types.Organization, error) {
	rows, err := s.db.Query(`
		SELECT o.guid, o.name, o.created_by
		FROM loft_organizations o
		JOIN loft_org_members m ON m.org_guid = o.guid
		WHERE m.uid = ?
		ORDER BY o.name COLLATE NOCASE, o.guid
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []types.Organization
	for rows.Next() {
		var org types.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedBy); err != nil {
			return nil, fmt.Errorf("list organizations: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	for i := range orgs {
		members, err := s.orgMembers(orgs[i].ID)
		if err != nil {
			return nil, err
		}
		orgs[i].Members = members
	}
	return orgs, nil
}

func (s *Store) orgMembers(orgID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT uid FROM loft_org_members WHERE org_guid = ? ORDER BY uid
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("org members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("org members: %w", err)
		}
		members = append(members, uid)
	}
	return members, rows.Err()
}
