package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limen-app/limen/internal/domain"
)

func TestConsentStore(t *testing.T) {
	s := NewConsentStore()
	device := domain.Owner{Device: "d1"}
	account := domain.Owner{Account: "a1"}

	assert.False(t, s.Consented(device))

	s.SetConsent(device, true)
	assert.True(t, s.Consented(device))
	assert.False(t, s.Consented(account))

	s.SetConsent(device, false)
	assert.False(t, s.Consented(device))
}
