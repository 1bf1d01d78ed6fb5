package tags

import (
	"testing"

	"collabiora-client/internal/models"
	"collabiora-client/internal/utils"

	"github.com/stretchr/testify/assert"
)

func TestBuildVocabularyStartsWithAllSentinel(t *testing.T) {
	vocabulary := BuildVocabulary(nil, nil)
	assert.Equal(t, SentinelAll, vocabulary[0])
	// Generic defaults follow when the community has no curated list.
	assert.Contains(t, vocabulary, "Clinical Trials")
}

func TestBuildVocabularyUsesCommunityDefaults(t *testing.T) {
	community := &models.Community{
		ID:          "c1",
		Name:        "Rare Metabolic Disorders",
		DefaultTags: []string{"Enzyme Therapy", "Genetics"},
	}
	vocabulary := BuildVocabulary(community, nil)
	assert.Equal(t, []string{"All", "Enzyme Therapy", "Genetics"}, vocabulary)
}

func TestBuildVocabularyMinesDynamicTags(t *testing.T) {
	community := &models.Community{DefaultTags: []string{"Genetics"}}
	threads := []*models.ThreadNode{
		{ID: "t1", Tags: []string{"genetics", "Gene Therapy"}},
		{ID: "t2", Conditions: []string{"Fabry Disease", "gene therapy"}},
	}

	vocabulary := BuildVocabulary(community, threads)

	// Case-insensitive dedup, first-seen casing wins.
	assert.Equal(t, []string{"All", "Genetics", "Gene Therapy", "Fabry Disease"}, vocabulary)
}

func TestMatchesTagAllMatchesEverything(t *testing.T) {
	threads := []*models.ThreadNode{
		{ID: "t1"},
		{ID: "t2", Tags: []string{"Support"}},
		{ID: "t3", Conditions: []string{"ALS"}},
	}
	for _, thread := range threads {
		assert.True(t, MatchesTag(thread, SentinelAll))
	}
}

func TestMatchesTagCaseInsensitiveAcrossTagsAndConditions(t *testing.T) {
	thread := &models.ThreadNode{
		Tags:       []string{"Clinical Trials"},
		Conditions: []string{"Duchenne MD"},
	}
	assert.True(t, MatchesTag(thread, "clinical trials"))
	assert.True(t, MatchesTag(thread, "duchenne md"))
	assert.False(t, MatchesTag(thread, "Publications"))
}

func TestFilterThreads(t *testing.T) {
	threads := []*models.ThreadNode{
		{ID: "t1", Tags: []string{"Support"}},
		{ID: "t2", Tags: []string{"Research"}},
	}
	filtered := FilterThreads(threads, "support")
	assert.Len(t, filtered, 1)
	assert.Equal(t, "t1", filtered[0].ID)

	assert.Len(t, FilterThreads(threads, SentinelAll), 2)
}

func TestValidateDraftRequiresMandatoryTag(t *testing.T) {
	draft := &ThreadDraft{
		Title: "Managing fatigue between infusion cycles",
		Body:  "Looking for strategies that worked for others.",
		Tags:  []string{"totally-freeform"},
	}
	err := ValidateDraft(draft)
	assert.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailure))

	draft.Tags = append(draft.Tags, "Support")
	assert.NoError(t, ValidateDraft(draft))
}

func TestValidateDraftRejectsEmptyTags(t *testing.T) {
	draft := &ThreadDraft{Title: "A valid title", Body: "body", Tags: nil}
	err := ValidateDraft(draft)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidationFailure))
}
