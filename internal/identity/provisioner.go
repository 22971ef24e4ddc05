// Package identity provisions the guest logins handed out by public
// bookings. The plain password leaves this package exactly once, in the
// Credentials returned by Provision.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fiam/gounidecode/unidecode"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/randcode"
	"hotel-ops-backend/internal/store"
)

// GuestRequest identifies the booking a login is created for.
type GuestRequest struct {
	HotelID       int64
	ReservationID string
	FirstName     string
	LastName      string
}

// Credentials are shown to the guest once and never stored in clear.
type Credentials struct {
	Email    string
	Password string
}

// Provisioner creates guest credentials. st is the unit of work the
// reservation is written in, so a failed booking leaves no login behind.
type Provisioner interface {
	Provision(ctx context.Context, st store.Store, req GuestRequest) (Credentials, error)
}

// LocalProvisioner keeps guest accounts in the hotel database.
type LocalProvisioner struct {
	domain         string
	passwordLength int
	cost           int
}

func NewLocalProvisioner(domain string, passwordLength int) *LocalProvisioner {
	if domain == "" {
		domain = "guests.local"
	}
	return &LocalProvisioner{domain: domain, passwordLength: passwordLength, cost: bcrypt.DefaultCost}
}

func (p *LocalProvisioner) Provision(ctx context.Context, st store.Store, req GuestRequest) (Credentials, error) {
	password, err := randcode.Password(p.passwordLength)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to generate guest password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to hash guest password: %w", err)
	}

	email := LoginEmail(req.FirstName, req.LastName, emailSuffix(req.ReservationID), p.domain)
	acc := &model.GuestAccount{
		ID:            uuid.NewString(),
		HotelID:       req.HotelID,
		ReservationID: req.ReservationID,
		Email:         email,
		PasswordHash:  string(hash),
		CreatedAt:     time.Now().UTC(),
	}
	if err := st.CreateGuestAccount(ctx, acc); err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: email, Password: password}, nil
}

// LoginEmail builds first.last.suffix@domain from transliterated names,
// e.g. "Hélène", "Dupont" -> helene.dupont.1a2b3c4d@domain.
func LoginEmail(first, last, suffix, domain string) string {
	parts := []string{}
	for _, s := range []string{slug(first), slug(last), slug(suffix)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "guest")
	}
	return strings.Join(parts, ".") + "@" + domain
}

func emailSuffix(reservationID string) string {
	id := strings.ReplaceAll(reservationID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func slug(s string) string {
	s = strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '\'' || r == '_':
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
