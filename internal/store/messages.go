package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/loftchat/loft/internal/types"
)

// messageColumns is the explicit column list for SELECT queries.
const messageColumns = `guid, channel_guid, body, author, author_avatar, created_at, attachments`

// CreateMessage inserts a message with a server-assigned timestamp.
// The body is stored as given; callers sanitize rich content first.
func (s *Store) CreateMessage(msg types.Message) (types.Message, error) {
	now := time.Now().UnixMilli()
	msg.CreatedAt = &now
	return s.insertMessage(msg)
}

// CreatePendingMessage inserts a message without a timestamp, modeling
// an optimistic send whose server time has not arrived yet. Resolve it
// with AssignTimestamp.
func (s *Store) CreatePendingMessage(msg types.Message) (types.Message, error) {
	msg.CreatedAt = nil
	return s.insertMessage(msg)
}

// AssignTimestamp stamps a pending message with the current server
// time. Stamping an already-dated message is a no-op.
func (s *Store) AssignTimestamp(msgID string) error {
	err := s.write(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE loft_messages SET created_at = ? WHERE guid = ? AND created_at IS NULL
		`, time.Now().UnixMilli(), msgID)
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
		return fmt.Errorf("assign timestamp: %w", err)
	}
	return nil
}

func (s *Store) insertMessage(msg types.Message) (types.Message, error) {
	if msg.ChannelID == "" {
		return types.Message{}, fmt.Errorf("create message: channel required")
	}
	if msg.Author == "" {
		return types.Message{}, fmt.Errorf("create message: author required")
	}
	if msg.Text == "" && len(msg.Attachments) == 0 {
		return types.Message{}, fmt.Errorf("create message: empty message")
	}

	attachmentsJSON, err := json.Marshal(msg.Attachments)
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}
	if msg.Attachments == nil {
		attachmentsJSON = []byte("[]")
	}

	err = s.write(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM loft_channels WHERE guid = ?", msg.ChannelID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("channel %s not found", msg.ChannelID)
		}
		guid, err := generateUniqueGUID(tx, "loft_messages", "msg")
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO loft_messages (guid, channel_guid, body, author, author_avatar, created_at, attachments)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, guid, msg.ChannelID, msg.Text, msg.Author, nullString(msg.AuthorAvatarURL), nullInt64(msg.CreatedAt), string(attachmentsJSON)); err != nil {
			return err
		}
		msg.ID = guid
		return nil
	})
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a channel's messages ascending by creation time.
// Pending (undated) messages sort after all dated messages; ties among
// pending messages break by insertion order. A limit of 0 means no
// limit; a positive limit keeps the newest rows.
func (s *Store) ListMessages(channelID string, limit int) ([]types.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM loft_messages
		WHERE channel_guid = ?
		ORDER BY created_at IS NULL, created_at, rowid
	`
	rows, err := s.db.Query(query, channelID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// LatestLogPosition returns the append-log position of a channel's
// newest message, for tail watchers that must skip catch-up history.
func (s *Store) LatestLogPosition(channelID string) (int64, error) {
	var pos sql.NullInt64
	err := s.db.QueryRow(`
		SELECT MAX(rowid) FROM loft_messages WHERE channel_guid = ?
	`, channelID).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("latest log position: %w", err)
	}
	return pos.Int64, nil
}

// MessagesSince returns messages appended after the given log position
// in append order, along with the new position.
func (s *Store) MessagesSince(channelID string, after int64) ([]types.Message, int64, error) {
	rows, err := s.db.Query(`
		SELECT rowid, `+messageColumns+`
		FROM loft_messages
		WHERE channel_guid = ? AND rowid > ?
		ORDER BY rowid
	`, channelID, after)
	if err != nil {
		return nil, after, fmt.Errorf("messages since: %w", err)
	}
	defer rows.Close()

	pos := after
	var messages []types.Message
	for rows.Next() {
		var rowid int64
		msg, err := scanMessageWith(rows.Scan, &rowid)
		if err != nil {
			return nil, after, fmt.Errorf("messages since: %w", err)
		}
		messages = append(messages, msg)
		pos = rowid
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("messages since: %w", err)
	}
	return messages, pos, nil
}

func scanMessage(scan func(...any) error) (types.Message, error) {
	return scanMessageWith(scan, nil)
}

func scanMessageWith(scan func(...any) error, rowid *int64) (types.Message, error) {
	var msg types.Message
	var avatar sql.NullString
	var createdAt sql.NullInt64
	var attachmentsJSON string

	dest := []any{&msg.ID, &msg.ChannelID, &msg.Text, &msg.Author, &avatar, &createdAt, &attachmentsJSON}
	if rowid != nil {
		dest = append([]any{rowid}, dest...)
	}
	if err := scan(dest...); err != nil {
		return types.Message{}, err
	}
	if avatar.Valid {
		msg.AuthorAvatarURL = &avatar.String
	}
	if createdAt.Valid {
		msg.CreatedAt = &createdAt.Int64
	}
	msg.Attachments = decodeAttachments(msg.ID, attachmentsJSON)
	return msg, nil
}

// decodeAttachments drops malformed attachment records instead of
// failing the message; a message whose attachments all fail still
// renders its text.
func decodeAttachments(msgID, raw string) []types.Attachment {
	if raw == "" || raw == "[]" {
		return nil
	}
	var decoded []types.Attachment
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		fmt.Fprintf(os.Stderr, "[store] dropping attachments for %s: %v\n", msgID, err)
		return nil
	}
	valid := decoded[:0]
	for _, a := range decoded {
		if a.Valid() {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}
