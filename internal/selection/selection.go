// Package selection remembers which organization and channel a user had
// active, persists that choice across sessions, and reconciles it
// against freshly loaded collections.
package selection

import (
	"strings"

	"github.com/loftchat/loft/internal/types"
)

// KV is the durable key-value store selections persist to.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	ListKeys(prefix string) ([]string, error)
}

// Prefs stores per-user selection state. Keys are namespaced per user
// and, for channels, per organization, so switching organizations never
// clobbers another organization's remembered channel.
type Prefs struct {
	kv KV
}

// NewPrefs wraps a KV store.
func NewPrefs(kv KV) *Prefs {
	return &Prefs{kv: kv}
}

func orgKey(uid string) string {
	return "sel:" + uid + ":org"
}

func channelKey(uid, orgID string) string {
	return "sel:" + uid + ":channel:" + orgID
}

// RestoreOrganization returns the persisted organization for a user.
func (p *Prefs) RestoreOrganization(uid string) (string, bool) {
	return p.kv.Get(orgKey(uid))
}

// PersistOrganization remembers the active organization. An empty id
// removes the key.
func (p *Prefs) PersistOrganization(uid, orgID string) error {
	if orgID == "" {
		return p.kv.Remove(orgKey(uid))
	}
	return p.kv.Set(orgKey(uid), orgID)
}

// RestoreChannel returns the persisted channel for a user within one
// organization.
func (p *Prefs) RestoreChannel(uid, orgID string) (string, bool) {
	return p.kv.Get(channelKey(uid, orgID))
}

// PersistChannel remembers the active channel within an organization.
// An empty id removes the key.
func (p *Prefs) PersistChannel(uid, orgID, channelID string) error {
	if channelID == "" {
		return p.kv.Remove(channelKey(uid, orgID))
	}
	return p.kv.Set(channelKey(uid, orgID), channelID)
}

// ClearAll removes the organization key and every channel key scoped to
// the user. Called on sign-out so selection state never leaks to the
// next session on a shared device.
func (p *Prefs) ClearAll(uid string) error {
	keys, err := p.kv.ListKeys("sel:" + uid + ":")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, "sel:"+uid+":") {
			continue
		}
		if err := p.kv.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOrganization applies the restoration policy when the
// organization list (re)loads: keep the currently active id if still a
// member, else the persisted id if valid, else the first organization
// in sorted order. showPicker is set when several organizations are
// available and neither the active nor the persisted id was valid; the
// caller should offer an explicit picker instead of silently
// defaulting.
func ResolveOrganization(current, persisted string, orgs []types.Organization) (orgID string, showPicker bool) {
	if containsOrg(orgs, current) {
		return current, false
	}
	if containsOrg(orgs, persisted) {
		return persisted, false
	}
	if len(orgs) == 0 {
		return "", false
	}
	return orgs[0].ID, len(orgs) > 1
}

// ResolveChannel applies the equivalent policy to channel selection
// within an organization, falling back to the first channel in sort
// order.
func ResolveChannel(current, persisted string, channels []types.Channel) string {
	if containsChannel(channels, current) {
		return current
	}
	if containsChannel(channels, persisted) {
		return persisted
	}
	if len(channels) == 0 {
		return ""
	}
	return channels[0].ID
}

func containsOrg(orgs []types.Organization, id string) bool {
	if id == "" {
		return false
	}
	for _, org := range orgs {
		if org.ID == id {
			return true
		}
	}
	return false
}

func containsChannel(channels []types.Channel, id string) bool {
	if id == "" {
		return false
	}
	for _, channel := range channels {
		if channel.ID == id {
			return true
		}
	}
	return false
}
