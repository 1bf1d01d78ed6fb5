package identity

import (
	"strings"

	"collabiora-client/internal/models"
)

// CanonicalKey is the single identifier used for membership and equality
// checks across favorite/follow sets. It is derived, never persisted as a
// database key.
type CanonicalKey string

// Candidate field chains per entity variant, first defined field wins.
// Expert records can come from the internal user table or from external
// registries, publications from the platform or from PubMed, so identity
// degrades through a priority chain instead of assuming one field.
var candidateFields = map[models.EntityType][]string{
	models.EntityExpert:      {"name", "orcid", "id", "_id", "userId"},
	models.EntityPublication: {"pmid", "id", "_id"},
	models.EntityTrial:       {"id", "_id"},
	models.EntityThread:      {"id", "_id"},
}

// ResolveRawID walks the candidate chain and returns the first defined
// value, or fallbackID when nothing is present. This is the id sent to the
// backend on removal requests.
func ResolveRawID(entityType models.EntityType, entity models.Entity, fallbackID string) string {
	for _, field := range candidateFields[entityType] {
		if value, ok := entity.StringField(field); ok {
			return value
		}
	}
	return fallbackID
}

// ResolveKey computes the canonical key for an entity. fallbackID is used
// when no candidate field is present; it is typically the list index or a
// caller-generated placeholder. The result is namespaced by entity type so
// fallback ids of different variants never collide.
//
// Pure function: identical input always yields an identical key. If two
// distinct records happen to share a resolved value they are treated as the
// same identity; that false positive is accepted.
func ResolveKey(entityType models.EntityType, entity models.Entity, fallbackID string) CanonicalKey {
	return CanonicalKey(string(entityType) + ":" + ResolveRawID(entityType, entity, fallbackID))
}

// ResolveEntityKey is ResolveKey for an Entity carrying its own type.
func ResolveEntityKey(entity models.Entity, fallbackID string) CanonicalKey {
	return ResolveKey(entity.Type, entity, fallbackID)
}

// MatchesTitle is the soft fallback used only for legacy favorites that
// predate stable ids: a case-insensitive comparison on the record's display
// title. Two different items sharing a title will match; callers only reach
// this after the canonical key found nothing.
func MatchesTitle(entity models.Entity, other models.Entity) bool {
	title := entity.DisplayTitle()
	if title == "" {
		return false
	}
	return strings.EqualFold(title, other.DisplayTitle())
}
