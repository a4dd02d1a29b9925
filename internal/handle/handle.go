// Package handle derives @-mention handles from user profiles and
// extracts mention tokens from message text.
package handle

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/loftchat/loft/internal/types"
)

var (
	tokenRe    = regexp.MustCompile(`(?i)@([a-z0-9._-]+)`)
	disallowed = regexp.MustCompile(`[^a-z0-9._-]`)
)

// Handle is a normalized mention identity for one user.
type Handle struct {
	Primary string
	Aliases []string
}

// Matches reports whether token equals the primary handle or any alias.
func (h Handle) Matches(token string) bool {
	if token == "" {
		return false
	}
	if token == h.Primary {
		return true
	}
	for _, alias := range h.Aliases {
		if token == alias {
			return true
		}
	}
	return false
}

// Normalize lower-cases a seed and strips every rune outside [a-z0-9._-].
func Normalize(seed string) string {
	return disallowed.ReplaceAllString(strings.ToLower(strings.TrimSpace(seed)), "")
}

// Derive builds a handle from a display name, falling back to a seed
// (typically the local part of an email address). The display name is
// primarized; a distinct seed-derived form becomes an alias. ok is false
// when neither source yields a usable handle.
func Derive(displayName, fallbackSeed string) (Handle, bool) {
	primary := Normalize(displayName)
	alias := Normalize(fallbackSeed)

	switch {
	case primary == "" && alias == "":
		return Handle{}, false
	case primary == "":
		return Handle{Primary: alias}, true
	case alias == "" || alias == primary:
		return Handle{Primary: primary}, true
	}
	return Handle{Primary: primary, Aliases: []string{alias}}, true
}

// EmailLocalPart returns the part of an email address before the @.
func EmailLocalPart(email string) string {
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}

// ExtractTokens scans plain text for @-mention tokens and returns each
// captured token lower-cased. A token preceded by a letter or digit is
// skipped so email addresses do not read as mentions.
func ExtractTokens(plain string) []string {
	matches := tokenRe.FindAllStringSubmatchIndex(plain, -1)
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) < 4 {
			continue
		}
		start := match[0]
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(plain[:start])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		tokens = append(tokens, strings.ToLower(plain[match[2]:match[3]]))
	}
	return tokens
}

// MentionableUsers derives the mention directory for one organization.
// Members with no usable handle are skipped; the result is sorted by
// primary handle. The viewer is excluded from their own suggestion list,
// so pass viewerUID only when building suggestions.
func MentionableUsers(profiles []types.Profile, excludeUID string) []types.MentionableUser {
	users := make([]types.MentionableUser, 0, len(profiles))
	for _, profile := range profiles {
		if excludeUID != "" && profile.UID == excludeUID {
			continue
		}
		h, ok := Derive(profile.DisplayName, EmailLocalPart(profile.Email))
		if !ok {
			continue
		}
		users = append(users, types.MentionableUser{
			UID:         profile.UID,
			DisplayName: profile.DisplayName,
			Username:    h.Primary,
			Aliases:     h.Aliases,
			AvatarURL:   profile.AvatarURL,
		})
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users
}
