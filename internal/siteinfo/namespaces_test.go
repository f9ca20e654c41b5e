package siteinfo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wikibox/internal/domain"
	"github.com/heartmarshall/wikibox/internal/pacer"
)

type stubAPI struct {
	body string
	err  error
	got  params.Values
}

func (s *stubAPI) Get(_ context.Context, p params.Values) (*jason.Object, error) {
	s.got = p
	if s.err != nil {
		return nil, s.err
	}
	return jason.NewObjectFromBytes([]byte(s.body))
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReader_Namespaces(t *testing.T) {
	t.Parallel()

	api := &stubAPI{body: `{"batchcomplete":"","query":{"namespaces":{
		"-1":{"id":-1,"case":"first-letter","canonical":"Special","*":"Special"},
		"0":{"id":0,"case":"first-letter","content":"","*":""},
		"14":{"id":14,"case":"first-letter","canonical":"Category","*":"Category"},
		"500":{"id":500,"case":"first-letter","canonical":"User blog","*":"User blog"}
	}}}`}
	r := NewReader(api, pacer.None(), newTestLogger())

	got, err := r.Namespaces(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Namespace{
		{ID: -1, Name: "Special", Canonical: "Special"},
		{ID: 0, Name: ""},
		{ID: 14, Name: "Category", Canonical: "Category"},
		{ID: 500, Name: "User blog", Canonical: "User blog"},
	}, got)
	assert.Equal(t, "siteinfo", api.got["meta"])
	assert.Equal(t, "namespaces", api.got["siprop"])
}

func TestReader_NamespacesFormatVersion2(t *testing.T) {
	t.Parallel()

	api := &stubAPI{body: `{"query":{"namespaces":{"14":{"id":14,"name":"Kategorie","canonical":"Category"}}}}`}
	r := NewReader(api, pacer.None(), newTestLogger())

	got, err := r.Namespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Namespace{{ID: 14, Name: "Kategorie", Canonical: "Category"}}, got)
}

func TestReader_NamespacesErrors(t *testing.T) {
	t.Parallel()

	r := NewReader(&stubAPI{err: fmt.Errorf("mediawiki: %w: boom", domain.ErrTransport)}, pacer.None(), newTestLogger())
	_, err := r.Namespaces(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)

	r = NewReader(&stubAPI{body: `{"batchcomplete":""}`}, pacer.None(), newTestLogger())
	_, err = r.Namespaces(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}
