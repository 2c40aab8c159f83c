package migration

import (
	"maps"
	"strings"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
)

const (
	fallbackNoticeTitle  = "Untitled Notice"
	fallbackNoticeAuthor = "unknown"
)

// TransformNotice renders a legacy notice in the current shape: title, body and a
// created_by {id, time} record. Unknown fields and the tenant reference are kept.
func TransformNotice(n *entities.LegacyNotice, now time.Time) map[string]any {
	out := make(map[string]any, len(n.Extra)+5)
	maps.Copy(out, n.Extra)
	putTenantFields(out, n.TenantFields)

	out["title"] = firstPresent(fallbackNoticeTitle, n.Subject, n.Title)
	out["body"] = firstPresent("", n.Content, n.Body)

	author := map[string]any{}
	var authorID *string
	when := now
	if n.CreatedBy != nil {
		maps.Copy(author, n.CreatedBy.Extra)
		if n.CreatedBy.ID != "" {
			authorID = &n.CreatedBy.ID
		}
		if n.CreatedBy.Time.Valid {
			when = n.CreatedBy.Time.Time
		} else if n.CreatedAt.Valid {
			when = n.CreatedAt.Time
		}
	} else if n.CreatedAt.Valid {
		when = n.CreatedAt.Time
	}
	author["id"] = firstPresent(fallbackNoticeAuthor, authorID, n.CreatedByID, n.AuthorID, n.UserID)
	author["time"] = when
	out["created_by"] = author
	return out
}

// TransformSheet folds a legacy singular url into urls and drops the url field.
func TransformSheet(s *entities.LegacySheet) map[string]any {
	out := make(map[string]any, len(s.Extra)+3)
	maps.Copy(out, s.Extra)
	putTenantFields(out, s.TenantFields)
	if s.SongID != "" {
		out["song_id"] = s.SongID
	}

	switch {
	case len(s.URLs) > 0:
		out["urls"] = s.URLs
	case s.URL != nil && strings.TrimSpace(*s.URL) != "":
		out["urls"] = []string{*s.URL}
	case s.URLs != nil:
		out["urls"] = s.URLs
	}
	return out
}

// firstPresent returns the first non-blank candidate, or fallback.
func firstPresent(fallback string, candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && strings.TrimSpace(*c) != "" {
			return *c
		}
	}
	return fallback
}

func putTenantFields(out map[string]any, f entities.TenantFields) {
	if f.TeamID != "" {
		out["team_id"] = f.TeamID
	}
	if f.TeamIDAlias != "" {
		out["teamId"] = f.TeamIDAlias
	}
}
