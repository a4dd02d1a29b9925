package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/loftchat/loft/internal/types"
)

// channelColumns is the explicit column list for SELECT queries.
const channelColumns = `guid, name, topic, org_guid, created_by, created_at`

// CreateChannel inserts a channel into an organization with a
// server-assigned creation time.
func (s *Store) CreateChannel(orgID, name string, topic *string, creatorUID string) (types.Channel, error) {
	if name == "" {
		return types.Channel{}, fmt.Errorf("create channel: name required")
	}

	var channel types.Channel
	err := s.write(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM loft_organizations WHERE guid = ?", orgID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("organization %s not found", orgID)
		}
		guid, err := generateUniqueGUID(tx, "loft_channels", "chn")
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()
		if _, err := tx.Exec(`
			INSERT INTO loft_channels (guid, name, topic, org_guid, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, guid, name, nullString(topic), orgID, creatorUID, now); err != nil {
			return err
		}
		channel = types.Channel{ID: guid, Name: name, Topic: topic, OrgID: orgID, CreatedBy: creatorUID, CreatedAt: &now}
		return nil
	})
	if err != nil {
		return types.Channel{}, fmt.Errorf("create channel: %w", err)
	}
	return channel, nil
}

// GetChannel returns one channel, or nil when not found.
func (s *Store) GetChannel(channelID string) (*types.Channel, error) {
	row := s.db.QueryRow(`SELECT `+channelColumns+` FROM loft_channels WHERE guid = ?`, channelID)
	channel, err := scanChannel(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &channel, nil
}

// ListChannels returns an organization's channels ascending by creation
// time. Channels lacking a creation time sort after all dated channels;
// undated ties break alphabetically by name.
func (s *Store) ListChannels(orgID string) ([]types.Channel, error) {
	rows, err := s.db.Query(`
		SELECT `+channelColumns+`
		FROM loft_channels
		WHERE org_guid = ?
		ORDER BY created_at IS NULL, created_at, name COLLATE NOCASE, guid
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []types.Channel
	for rows.Next() {
		channel, err := scanChannel(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func scanChannel(scan func(...any) error) (types.Channel, error) {
	var channel types.Channel
	var topic sql.NullString
	var createdAt sql.NullInt64
	if err := scan(&channel.ID, &channel.Name, &topic, &channel.OrgID, &channel.CreatedBy, &createdAt); err != nil {
		return types.Channel{}, err
	}
	if topic.Valid {
		channel.Topic = &topic.String
	}
	if createdAt.Valid {
		channel.CreatedAt = &createdAt.Int64
	}
	return channel, nil
}
