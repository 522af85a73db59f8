package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decklens/internal/domain"
)

const fencedAnalysis = "Here is the structured view of the deck:\n\n" +
	"```json\n" +
	`{
  "startup_name": "Lovelace Computing",
  "value_proposition": "Programmable analytical engines",
  "number_of_founders": 2,
  "founders": ["Ada Lovelace", "Grace Hopper"],
  "problem": "Manual computation",
  "solution": "General-purpose machines",
  "target_market": null,
  "traction": null,
  "funding": "Seed",
  "notable_points": null,
  "summary": "Strong team."
}` + "\n```\n\n🚀 Strong early-stage potential."

func TestParse_FencedPayload(t *testing.T) {
	ents, err := NewParser().Parse(fencedAnalysis)

	require.NoError(t, err)
	assert.Equal(t, []domain.Entity{{Name: "Ada Lovelace"}, {Name: "Grace Hopper"}}, ents)
}

func TestParse_BareObject(t *testing.T) {
	analysis := `{"founders": ["Ada Lovelace", "Grace Hopper"], "summary": "ok"}`

	ents, err := NewParser().Parse(analysis)

	require.NoError(t, err)
	assert.Equal(t, []domain.Entity{{Name: "Ada Lovelace"}, {Name: "Grace Hopper"}}, ents)
}

func TestParse_MissingFoundersField(t *testing.T) {
	ents, err := NewParser().Parse(`{"startup_name": "Acme", "summary": "no people named"}`)

	require.NoError(t, err)
	assert.Empty(t, ents)
	assert.NotNil(t, ents)
}

func TestParse_NullFounders(t *testing.T) {
	ents, err := NewParser().Parse(`{"founders": null}`)

	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestParse_EmptyFoundersArray(t *testing.T) {
	ents, err := NewParser().Parse(`{"founders": []}`)

	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestParse_BlankNamesDropped(t *testing.T) {
	ents, err := NewParser().Parse(`{"founders": ["  Ada Lovelace  ", "", "   "]}`)

	require.NoError(t, err)
	assert.Equal(t, []domain.Entity{{Name: "Ada Lovelace"}}, ents)
}

func TestParse_MalformedPayload(t *testing.T) {
	ents, err := NewParser().Parse("```json\n{\"founders\": [}\n```")

	assert.Nil(t, ents)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Raw, "founders")
}

func TestParse_SchemaMismatch(t *testing.T) {
	ents, err := NewParser().Parse(`{"number_of_founders": "two", "founders": ["Ada Lovelace"]}`)

	assert.Nil(t, ents)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParse_FragmentFallback(t *testing.T) {
	analysis := `The deck names its team as "founders": ["Jane Roe", "John Doe"] on slide 3.`

	ents, err := NewParser().Parse(analysis)

	require.NoError(t, err)
	assert.Equal(t, []domain.Entity{{Name: "Jane Roe"}, {Name: "John Doe"}}, ents)
}

func TestParse_NothingToParse(t *testing.T) {
	ents, err := NewParser().Parse("A purely narrative analysis with no structure.")

	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestParsePayload_AllFields(t *testing.T) {
	payload, err := NewParser().ParsePayload(fencedAnalysis)

	require.NoError(t, err)
	require.NotNil(t, payload.StartupName)
	assert.Equal(t, "Lovelace Computing", *payload.StartupName)
	require.NotNil(t, payload.NumberOfFounders)
	assert.Equal(t, 2, *payload.NumberOfFounders)
	assert.Nil(t, payload.TargetMarket)
	assert.Len(t, payload.Founders, 2)
}

func TestParsePayload_NoPayload(t *testing.T) {
	payload, err := NewParser().ParsePayload("plain prose")

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestLocatePayload_NestedBraces(t *testing.T) {
	raw, ok := locatePayload(`prefix {"a": {"b": "c"}, "d": "}"} suffix`)

	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": "c"}, "d": "}"}`, raw)
}

func TestLocatePayload_PrefersFencedBlock(t *testing.T) {
	text := "{\"ignored\": true}\n```json\n{\"picked\": true}\n```"

	raw, ok := locatePayload(text)

	require.True(t, ok)
	assert.Equal(t, `{"picked": true}`, raw)
}
