package mediawiki

import (
	"testing"

	"github.com/antonholmquist/jason"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wikibox/internal/domain"
)

func mustObject(t *testing.T, s string) *jason.Object {
	t.Helper()
	obj, err := jason.NewObjectFromBytes([]byte(s))
	require.NoError(t, err)
	return obj
}

func TestPages_FormatVersion1(t *testing.T) {
	t.Parallel()

	resp := mustObject(t, `{"batchcomplete":"","query":{"pages":{
		"-1":{"ns":0,"title":"Nobody","missing":""},
		"42":{"pageid":42,"ns":0,"title":"Amy Barlow","revisions":[{"slots":{"main":{"contentmodel":"wikitext","*":"{{Infobox character}}"}}}]},
		"17":{"pageid":17,"ns":0,"title":"Ken Barlow","revisions":[{"slots":{"main":{"*":"text"}}}]}
	}}}`)

	pages, err := Pages(resp)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, -1, pages[0].Key)
	assert.True(t, pages[0].Missing)
	assert.False(t, pages[0].HasContent)

	assert.Equal(t, 17, pages[1].Key)
	assert.Equal(t, "Ken Barlow", pages[1].Title)

	assert.Equal(t, 42, pages[2].PageID)
	assert.True(t, pages[2].HasContent)
	assert.Equal(t, "{{Infobox character}}", pages[2].Content)
}

func TestPages_FormatVersion2(t *testing.T) {
	t.Parallel()

	resp := mustObject(t, `{"batchcomplete":true,"query":{"pages":[
		{"pageid":42,"ns":0,"title":"Amy Barlow","revisions":[{"slots":{"main":{"content":"wikitext"}}}]},
		{"ns":0,"title":"Nobody","missing":true}
	]}}`)

	pages, err := Pages(resp)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "wikitext", pages[0].Content)
	assert.Equal(t, 0, pages[1].Key)
	assert.True(t, pages[1].Missing)
}

func TestPages_MalformedIsTransportFault(t *testing.T) {
	t.Parallel()

	_, err := Pages(mustObject(t, `{"batchcomplete":""}`))
	assert.ErrorIs(t, err, domain.ErrTransport)

	_, err = Pages(mustObject(t, `{"query":{"pages":{"abc":{"title":"x"}}}}`))
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestContinuation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantMore bool
		want     map[string]string
	}{
		{
			name:     "token present",
			body:     `{"continue":{"cmcontinue":"page|4b454e|17","continue":"-||"},"query":{}}`,
			wantMore: true,
			want:     map[string]string{"cmcontinue": "page|4b454e|17", "continue": "-||"},
		},
		{
			name: "batchcomplete only",
			body: `{"batchcomplete":"","query":{}}`,
		},
		{
			name: "continue without our token",
			body: `{"continue":{"rvcontinue":"1|2","continue":"||"},"query":{}}`,
		},
		{
			name:     "token alongside batchcomplete",
			body:     `{"batchcomplete":"","continue":{"cmcontinue":"x","continue":"-||"}}`,
			wantMore: true,
			want:     map[string]string{"cmcontinue": "x", "continue": "-||"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, more := Continuation(mustObject(t, tt.body), "cmcontinue")
			assert.Equal(t, tt.wantMore, more)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMembers_MissingListIsTransportFault(t *testing.T) {
	t.Parallel()

	_, err := Members(mustObject(t, `{"query":{"pages":{}}}`), "categorymembers")
	assert.ErrorIs(t, err, domain.ErrTransport)

	members, err := Members(mustObject(t, `{"batchcomplete":""}`), "categorymembers")
	require.NoError(t, err)
	assert.Empty(t, members)
}
