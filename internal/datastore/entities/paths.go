// Package entities holds typed views of the documents the migration engine reads and writes.
// Legacy documents are decoded from their stored field maps into per-schema structs; unknown
// fields are kept in Extra so relocation never drops content.
package entities

import "github.com/yongshn220/wooriworship-sub001/internal/datastore"

// Root-level (legacy flat) collections.
const (
	CollectionTeams        = "teams"
	CollectionSchedules    = "schedules"
	CollectionWorships     = "worships"
	CollectionSongs        = "songs"
	CollectionSheets       = "sheets"
	CollectionSongComments = "song_comments"
	CollectionNotices      = "notices"
	CollectionTags         = "tags"
	CollectionRuns         = "_migration_runs"
)

// Tenant-scoped collections under teams/{tenantId}.
const (
	CollectionComments        = "comments"
	CollectionServiceTags     = "service_tags"
	CollectionMembers         = "members"
	CollectionServices        = "services"
	CollectionServiceSetlists = "service_setlists"
	CollectionServiceBands    = "service_bands"
	CollectionServiceFlows    = "service_flows"
)

// TenantPath returns the document path of a tenant.
func TenantPath(tenantID string) string {
	return datastore.DocPath(CollectionTeams, tenantID)
}

// TenantCollection returns the path of a collection scoped to tenantID.
func TenantCollection(tenantID, name string) string {
	return datastore.CollectionPath(CollectionTeams, tenantID, name)
}

// SongChildCollection returns the path of a child collection under a tenant song.
func SongChildCollection(tenantID, songID, name string) string {
	return datastore.CollectionPath(CollectionTeams, tenantID, CollectionSongs, songID, name)
}
