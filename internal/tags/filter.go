package tags

import (
	"strings"

	"collabiora-client/internal/models"
)

// SentinelAll is the filter entry that matches every thread.
const SentinelAll = "All"

// MandatoryVocabulary is the closed, platform-defined tag set. Every new
// thread must carry at least one of these before it may be submitted.
var MandatoryVocabulary = []string{
	"Clinical Trials",
	"Publications",
	"Treatment",
	"Diagnosis",
	"Symptoms",
	"Research",
	"Support",
}

// defaultVocabulary is used when a community carries no curated tag list.
var defaultVocabulary = []string{
	"Clinical Trials",
	"Treatment",
	"Symptoms",
	"Research",
	"Support",
}

// BuildVocabulary unions the community's default tag list with the tags and
// conditions observed on the supplied threads, deduplicating
// case-insensitively while preserving first-seen casing, and prepends the
// "All" sentinel.
func BuildVocabulary(community *models.Community, threads []*models.ThreadNode) []string {
	vocabulary := []string{SentinelAll}
	seen := map[string]bool{strings.ToLower(SentinelAll): true}

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		lower := strings.ToLower(tag)
		if seen[lower] {
			return
		}
		seen[lower] = true
		vocabulary = append(vocabulary, tag)
	}

	defaults := defaultVocabulary
	if community != nil && len(community.DefaultTags) > 0 {
		defaults = community.DefaultTags
	}
	for _, tag := range defaults {
		add(tag)
	}

	// Dynamic tags mined from the threads themselves.
	for _, thread := range threads {
		for _, tag := range thread.Tags {
			add(tag)
		}
		for _, condition := range thread.Conditions {
			add(condition)
		}
	}

	return vocabulary
}

// MatchesTag reports whether a thread passes the selected filter. "All"
// passes unconditionally; otherwise the thread's merged tags and conditions
// are searched case-insensitively.
func MatchesTag(thread *models.ThreadNode, selectedTag string) bool {
	if selectedTag == SentinelAll || selectedTag == "" {
		return true
	}
	for _, tag := range thread.Tags {
		if strings.EqualFold(tag, selectedTag) {
			return true
		}
	}
	for _, condition := range thread.Conditions {
		if strings.EqualFold(condition, selectedTag) {
			return true
		}
	}
	return false
}

// FilterThreads applies MatchesTag over a fetched list. Filtering is always
// client-side, after every thread-list fetch.
func FilterThreads(threads []*models.ThreadNode, selectedTag string) []*models.ThreadNode {
	if selectedTag == SentinelAll || selectedTag == "" {
		return threads
	}
	filtered := make([]*models.ThreadNode, 0, len(threads))
	for _, thread := range threads {
		if MatchesTag(thread, selectedTag) {
			filtered = append(filtered, thread)
		}
	}
	return filtered
}

// HasMandatoryTag reports whether the tag list intersects the mandatory
// vocabulary (case-insensitive).
func HasMandatoryTag(threadTags []string) bool {
	for _, tag := range threadTags {
		for _, mandatory := range MandatoryVocabulary {
			if strings.EqualFold(tag, mandatory) {
				return true
			}
		}
	}
	return false
}
