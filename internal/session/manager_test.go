package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kornell/internal/apperr"
)

func TestManager_IndependentSessions(t *testing.T) {
	var closed []string
	m := NewManager(newMemFiles(), Options{Notify: func(e Event) {
		if e.Kind == EventClosed {
			closed = append(closed, e.SessionID)
		}
	}})
	a := m.Create()
	b := m.Create()
	require.NotEqual(t, a.ID(), b.ID())

	require.NoError(t, a.SetField("title", "A"))
	assert.Equal(t, "", b.Document().Title)

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Len(t, m.IDs(), 2)

	require.NoError(t, m.Close(a.ID()))
	_, err = m.Get(a.ID())
	assert.ErrorIs(t, err, apperr.ErrUnknownSession)
	assert.ErrorIs(t, m.Close(a.ID()), apperr.ErrUnknownSession)
	assert.Equal(t, []string{a.ID()}, closed)
	assert.Equal(t, []string{b.ID()}, m.IDs())
}
