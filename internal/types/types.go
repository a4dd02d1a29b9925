package types

// Organization represents a workspace grouping channels and members.
type Organization struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"created_by"`
}

// HasMember reports whether uid is in the organization's member set.
func (o Organization) HasMember(uid string) bool {
	for _, member := range o.Members {
		if member == uid {
			return true
		}
	}
	return false
}

// Channel represents a named conversation stream within one organization.
type Channel struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Topic     *string `json:"topic,omitempty"`
	OrgID     string  `json:"org_id"`
	CreatedBy string  `json:"created_by"`
	CreatedAt *int64  `json:"created_at,omitempty"` // unix ms, nil while pending
}

// Message represents a single authored unit of content within a channel.
// CreatedAt is server-assigned; nil means the message is still pending.
type Message struct {
	ID              string       `json:"id"`
	ChannelID       string       `json:"channel_id"`
	Text            string       `json:"text"`
	Author          string       `json:"author"`
	AuthorAvatarURL *string      `json:"author_avatar_url,omitempty"`
	CreatedAt       *int64       `json:"created_at,omitempty"` // unix ms
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// Pending reports whether the message has no server timestamp yet.
func (m Message) Pending() bool {
	return m.CreatedAt == nil
}

// Attachment represents a file reference attached to a message.
type Attachment struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Size            int64   `json:"size"`
	ContentType     string  `json:"content_type"`
	URL             string  `json:"url"`
	StoragePath     *string `json:"storage_path,omitempty"`
	ThumbnailURL    *string `json:"thumbnail_url,omitempty"`
	ThumbnailPath   *string `json:"thumbnail_path,omitempty"`
	ThumbnailWidth  *int    `json:"thumbnail_width,omitempty"`
	ThumbnailHeight *int    `json:"thumbnail_height,omitempty"`
}

// Key returns a stable identity for list diffing and removal correlation.
// Falls back to the storage path, then the URL, when no id was assigned.
func (a Attachment) Key() string {
	if a.ID != "" {
		return a.ID
	}
	if a.StoragePath != nil && *a.StoragePath != "" {
		return *a.StoragePath
	}
	return a.URL
}

// Valid reports whether the attachment carries enough metadata to render.
func (a Attachment) Valid() bool {
	return a.Name != "" && a.Key() != "" && a.URL != ""
}

// Profile represents a directory record for a signed-in user.
type Profile struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	AvatarPath  *string `json:"avatar_path,omitempty"`
}

// MentionableUser is derived per organization from the member list.
// It is never persisted; recompute it when membership changes.
type MentionableUser struct {
	UID         string   `json:"uid"`
	DisplayName string   `json:"display_name"`
	Username    string   `json:"username"`
	Aliases     []string `json:"aliases,omitempty"`
	AvatarURL   *string  `json:"avatar_url,omitempty"`
}
