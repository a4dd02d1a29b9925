package store

import (
	"path/filepath"
	"testing"

	"github.com/loftchat/loft/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "loft.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateOrg(t *testing.T, s *Store, name, creator string) types.Organization {
	t.Helper()
	org, err := s.CreateOrganization(name, creator)
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return org
}

func mustCreateChannel(t *testing.T, s *Store, orgID, name, creator string) types.Channel {
	t.Helper()
	channel, err := s.CreateChannel(orgID, name, nil, creator)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	return channel
}

func TestCreateOrganizationCreatorIsMember(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")

	if !org.HasMember("u1") {
		t.Fatal("creator not in member list")
	}

	got, err := s.GetOrganization(org.ID)
	if err != nil {
		t.Fatalf("get org: %v", err)
	}
	if got == nil || !got.HasMember("u1") {
		t.Fatal("creator not persisted as member")
	}
}

func TestListOrganizationsAlphabetical(t *testing.T) {
	s := openTestStore(t)
	mustCreateOrg(t, s, "zebra", "u1")
	mustCreateOrg(t, s, "Alpha", "u1")
	mustCreateOrg(t, s, "midway", "u1")
	mustCreateOrg(t, s, "other", "u2")

	orgs, err := s.ListOrganizations("u1")
	if err != nil {
		t.Fatalf("list orgs: %v", err)
	}
	if len(orgs) != 3 {
		t.Fatalf("expected 3 orgs for u1, got %d", len(orgs))
	}
	want := []string{"Alpha", "midway", "zebra"}
	for i, name := range want {
		if orgs[i].Name != name {
			t.Errorf("orgs[%d] = %q, want %q", i, orgs[i].Name, name)
		}
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")

	if err := s.AddMember(org.ID, "u2"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.AddMember(org.ID, "u2"); err != nil {
		t.Fatalf("re-add member: %v", err)
	}

	got, err := s.GetOrganization(org.ID)
	if err != nil {
		t.Fatalf("get org: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members, got %v", got.Members)
	}
}

func TestChannelOrderingDatedBeforeUndated(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")

	// "zeta" has no creation time, "alpha" does; dated sorts first
	// regardless of name.
	if _, err := s.DB().Exec(`
		INSERT INTO loft_channels (guid, name, org_guid, created_by, created_at)
		VALUES ('chn-a', 'zeta', ?, 'u1', NULL), ('chn-b', 'alpha', ?, 'u1', 1000)
	`, org.ID, org.ID); err != nil {
		t.Fatalf("seed channels: %v", err)
	}

	channels, err := s.ListChannels(org.ID)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	if channels[0].ID != "chn-b" || channels[1].ID != "chn-a" {
		t.Errorf("order = [%s %s], want [chn-b chn-a]", channels[0].ID, channels[1].ID)
	}
}

func TestUndatedChannelsSortAlphabetically(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")

	if _, err := s.DB().Exec(`
		INSERT INTO loft_channels (guid, name, org_guid, created_by, created_at)
		VALUES ('chn-a', 'zeta', ?, 'u1', NULL), ('chn-b', 'alpha', ?, 'u1', NULL)
	`, org.ID, org.ID); err != nil {
		t.Fatalf("seed channels: %v", err)
	}

	channels, err := s.ListChannels(org.ID)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if channels[0].Name != "alpha" || channels[1].Name != "zeta" {
		t.Errorf("order = [%s %s], want [alpha zeta]", channels[0].Name, channels[1].Name)
	}
}

func TestMessagesPendingSortLast(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")
	channel := mustCreateChannel(t, s, org.ID, "general", "u1")

	pending, err := s.CreatePendingMessage(types.Message{ChannelID: channel.ID, Text: "pending", Author: "ada"})
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	dated, err := s.CreateMessage(types.Message{ChannelID: channel.ID, Text: "dated", Author: "ada"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	messages, err := s.ListMessages(channel.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != dated.ID || messages[1].ID != pending.ID {
		t.Errorf("pending message did not sort last: %v then %v", messages[0].ID, messages[1].ID)
	}
	if !messages[1].Pending() {
		t.Error("expected second message to be pending")
	}

	if err := s.AssignTimestamp(pending.ID); err != nil {
		t.Fatalf("assign timestamp: %v", err)
	}
	messages, err = s.ListMessages(channel.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if messages[1].Pending() {
		t.Error("timestamp not assigned")
	}
}

func TestMessagesSinceSkipsHistory(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")
	channel := mustCreateChannel(t, s, org.ID, "general", "u1")

	if _, err := s.CreateMessage(types.Message{ChannelID: channel.ID, Text: "history", Author: "ada"}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	pos, err := s.LatestLogPosition(channel.ID)
	if err != nil {
		t.Fatalf("latest position: %v", err)
	}

	newer, pos2, err := s.MessagesSince(channel.ID, pos)
	if err != nil {
		t.Fatalf("messages since: %v", err)
	}
	if len(newer) != 0 || pos2 != pos {
		t.Fatalf("expected no new messages, got %d", len(newer))
	}

	sent, err := s.CreateMessage(types.Message{ChannelID: channel.ID, Text: "fresh", Author: "bob"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	newer, pos3, err := s.MessagesSince(channel.ID, pos2)
	if err != nil {
		t.Fatalf("messages since: %v", err)
	}
	if len(newer) != 1 || newer[0].ID != sent.ID {
		t.Fatalf("expected the fresh message, got %v", newer)
	}
	if pos3 <= pos2 {
		t.Errorf("position did not advance: %d -> %d", pos2, pos3)
	}
}

func TestMalformedAttachmentsDropped(t *testing.T) {
	s := openTestStore(t)
	org := mustCreateOrg(t, s, "acme", "u1")
	channel := mustCreateChannel(t, s, org.ID, "general", "u1")

	if _, err := s.DB().Exec(`
		INSERT INTO loft_messages (guid, channel_guid, body, author, created_at, attachments)
		VALUES ('msg-bad', ?, 'text survives', 'ada', 1000, 'not json'),
		       ('msg-mixed', ?, 'mixed', 'ada', 2000,
		        '[{"name":"ok.png","size":10,"content_type":"image/png","url":"file:///ok.png"},{"name":"","url":""}]')
	`, channel.ID, channel.ID); err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	messages, err := s.ListMessages(channel.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if messages[0].Text != "text survives" || messages[0].Attachments != nil {
		t.Errorf("malformed attachments should drop, message survive: %+v", messages[0])
	}
	if len(messages[1].Attachments) != 1 || messages[1].Attachments[0].Name != "ok.png" {
		t.Errorf("valid attachment should survive filtering: %+v", messages[1].Attachments)
	}
}

func TestSeqBumpsOnWrite(t *testing.T) {
	s := openTestStore(t)

	before, err := s.Seq()
	if err != nil {
		t.Fatalf("seq: %v", err)
	}
	mustCreateOrg(t, s, "acme", "u1")
	after, err := s.Seq()
	if err != nil {
		t.Fatalf("seq: %v", err)
	}
	if after != before+1 {
		t.Errorf("seq = %d, want %d", after, before+1)
	}
}

func TestChangeHookFires(t *testing.T) {
	s := openTestStore(t)

	fired := 0
	s.AddChangeHook(func() { fired++ })
	org := mustCreateOrg(t, s, "acme", "u1")
	if fired != 1 {
		t.Fatalf("hook fired %d times, want 1", fired)
	}

	// No-op writes don't wake watchers.
	if err := s.AddMember(org.ID, "u1"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if fired != 1 {
		t.Errorf("hook fired on no-op write")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	avatar := "file:///a.png"
	p := types.Profile{UID: "u1", DisplayName: "Ada", Email: "ada@example.com", AvatarURL: &avatar}
	if err := s.UpsertProfile(p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetProfile("u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.DisplayName != "Ada" || got.AvatarURL == nil || *got.AvatarURL != avatar {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	p.DisplayName = "Ada L"
	if err := s.UpsertProfile(p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetProfile("u1")
	if got.DisplayName != "Ada L" {
		t.Errorf("update not applied: %+v", got)
	}

	profiles, err := s.GetProfiles([]string{"u1", "missing"})
	if err != nil {
		t.Fatalf("get profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Errorf("missing uid should be skipped, got %d profiles", len(profiles))
	}
}
