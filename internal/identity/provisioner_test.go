package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store/storetest"
)

func TestLoginEmail(t *testing.T) {
	testCases := []struct {
		name     string
		first    string
		last     string
		suffix   string
		expected string
	}{
		{"accents", "Hélène", "Dupont", "1a2b3c4d", "helene.dupont.1a2b3c4d@hotel.test"},
		{"compound names", "Jean Pierre", "D'Arcy-Smith", "ab", "jean-pierre.d-arcy-smith.ab@hotel.test"},
		{"vietnamese", "Nguyễn", "Văn Đức", "", "nguyen.van-duc@hotel.test"},
		{"nothing usable", "!!", "", "", "guest@hotel.test"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, LoginEmail(tc.first, tc.last, tc.suffix, "hotel.test"))
		})
	}
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	s := storetest.Open(t)
	p := NewLocalProvisioner("hotel.test", 16)
	p.cost = bcrypt.MinCost

	req := GuestRequest{HotelID: 1, ReservationID: "0f8fad5b-d9cb-469f-a165-70867728950e", FirstName: "Hélène", LastName: "Dupont"}
	creds, err := p.Provision(ctx, s, req)
	require.NoError(t, err)
	assert.Equal(t, "helene.dupont.0f8fad5b@hotel.test", creds.Email)
	assert.Len(t, creds.Password, 16)

	var acc model.GuestAccount
	require.NoError(t, s.DB().Where("reservation_id = ?", req.ReservationID).First(&acc).Error)
	assert.NotEqual(t, creds.Password, acc.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(creds.Password)))

	_, err = p.Provision(ctx, s, req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
