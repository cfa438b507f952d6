package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageStateMachine(t *testing.T) {
	legal := [][2]PageState{
		{PageDiscovered, PagePending},
		{PagePending, PageAnalyzing},
		{PageAnalyzing, PageAnalyzed},
		{PageAnalyzed, PageVerifiedCommerce},
		{PageAnalyzed, PageNotCommerce},
		{PageVerifiedCommerce, PageActive},
		{PageActive, PageInactive},
		{PageInactive, PageActive},
		{PageActive, PageArchived},
		{PageArchived, PageActive}, // archived is reactivatable
		{PageArchived, PageDeleted},
		{PageAnalyzing, PageError},
		{PageAnalyzing, PageUnreachable},
		{PageError, PagePending},
		{PageUnreachable, PagePending},
	}
	for _, tr := range legal {
		got, err := Transition(tr[0], tr[1])
		require.NoError(t, err, "%s -> %s", tr[0], tr[1])
		assert.Equal(t, tr[1], got)
	}

	illegal := [][2]PageState{
		{PageDiscovered, PageActive},
		{PagePending, PageVerifiedCommerce},
		{PageActive, PageAnalyzing},
		{PageDeleted, PagePending}, // deleted is terminal
		{PageDeleted, PageActive},
		{PageNotCommerce, PageVerifiedCommerce},
	}
	for _, tr := range illegal {
		_, err := Transition(tr[0], tr[1])
		require.Error(t, err, "%s -> %s should fail", tr[0], tr[1])
		assert.ErrorIs(t, err, ErrInvalidStateTransition)

		var ite *InvalidTransitionError
		require.ErrorAs(t, err, &ite)
		assert.Equal(t, tr[0], ite.From)
		assert.Equal(t, tr[1], ite.To)
	}
}

func TestPageTransitionToKeepsStateOnError(t *testing.T) {
	p := &Page{State: PageDiscovered}
	err := p.TransitionTo(PageDeleted)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, PageDiscovered, p.State)

	require.NoError(t, p.TransitionTo(PagePending))
	assert.Equal(t, PagePending, p.State)
}

func TestPageSetURLKeepsDomainInvariant(t *testing.T) {
	p := &Page{}
	require.NoError(t, p.SetURL("https://www.Example-Shop.com/collections/all?ref=x"))
	assert.Equal(t, "example-shop.com", p.Domain)

	host, err := RegistrableHost(p.URL)
	require.NoError(t, err)
	assert.Equal(t, p.Domain, host)

	assert.ErrorIs(t, p.SetURL("ftp://example.com"), ErrInvalidURL)
	assert.ErrorIs(t, p.SetURL("not a url"), ErrInvalidURL)
}
