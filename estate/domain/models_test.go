package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusInProgress))
	assert.True(t, CanTransition(StatusReopened, StatusInProgress))
	assert.True(t, CanTransition(StatusInProgress, StatusResolved))
	assert.True(t, CanTransition(StatusResolved, StatusClosed))
	assert.True(t, CanTransition(StatusResolved, StatusReopened))

	assert.False(t, CanTransition(StatusClosed, StatusInProgress))
	assert.False(t, CanTransition(StatusResolved, StatusInProgress))
	assert.False(t, CanTransition(StatusPending, StatusClosed))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}

func TestKYCLinkActive(t *testing.T) {
	now := time.Now()
	assert.True(t, KYCLink{ExpiresAt: now.Add(time.Hour)}.Active(now))
	assert.False(t, KYCLink{ExpiresAt: now.Add(-time.Second)}.Active(now))
	assert.False(t, KYCLink{ExpiresAt: now.Add(time.Hour), Used: true}.Active(now))
}

func TestPage(t *testing.T) {
	assert.Equal(t, 0, Page{}.Offset())
	assert.Equal(t, 10, Page{}.Limit())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
	assert.Equal(t, 5, Page{Number: 2, Size: 5}.Limit())
}

func TestAccountsEmpty(t *testing.T) {
	assert.True(t, Accounts{}.Empty())
	assert.False(t, Accounts{Landlord: &Landlord{ID: 1}}.Empty())
}
