package store

const schemaSQL = `
-- Workspaces
CREATE TABLE IF NOT EXISTS loft_organizations (
  guid TEXT PRIMARY KEY,               -- e.g., "org-x9y8z7w6"
  name TEXT NOT NULL,
  created_by TEXT NOT NULL,            -- uid of the creator
  created_at INTEGER NOT NULL          -- unix ms
);

-- Membership; uniqueness enforced by the primary key
CREATE TABLE IF NOT EXISTS loft_org_members (
  org_guid TEXT NOT NULL,
  uid TEXT NOT NULL,
  PRIMARY KEY (org_guid, uid),
  FOREIGN KEY (org_guid) REFERENCES loft_organizations(guid)
);

-- Conversation streams, each owned by exactly one organization
CREATE TABLE IF NOT EXISTS loft_channels (
  guid TEXT PRIMARY KEY,               -- e.g., "chn-a1b2c3d4"
  name TEXT NOT NULL,
  topic TEXT,
  org_guid TEXT NOT NULL,
  created_by TEXT NOT NULL,
  created_at INTEGER,                  -- unix ms, null while pending
  FOREIGN KEY (org_guid) REFERENCES loft_organizations(guid)
);

CREATE INDEX IF NOT EXISTS idx_loft_channels_org ON loft_channels(org_guid);

-- Messages; immutable after create
CREATE TABLE IF NOT EXISTS loft_messages (
  guid TEXT PRIMARY KEY,               -- e.g., "msg-a1b2c3d4"
  channel_guid TEXT NOT NULL,
  body TEXT NOT NULL,                  -- sanitized rich content
  author TEXT NOT NULL,                -- display name
  author_avatar TEXT,
  created_at INTEGER,                  -- unix ms, null while pending
  attachments TEXT NOT NULL DEFAULT '[]',  -- JSON array
  FOREIGN KEY (channel_guid) REFERENCES loft_channels(guid)
);

CREATE INDEX IF NOT EXISTS idx_loft_messages_channel ON loft_messages(channel_guid, created_at);

-- User directory
CREATE TABLE IF NOT EXISTS loft_profiles (
  uid TEXT PRIMARY KEY,
  display_name TEXT NOT NULL,
  email TEXT NOT NULL,
  avatar_url TEXT,
  avatar_path TEXT                     -- blob ref for best-effort cleanup
);

-- Change sequence; bumped in the same transaction as every write
CREATE TABLE IF NOT EXISTS loft_seq (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  seq INTEGER NOT NULL
);

INSERT OR IGNORE INTO loft_seq (id, seq) VALUES (1, 0);
`

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return err
	}
	return nil
}
