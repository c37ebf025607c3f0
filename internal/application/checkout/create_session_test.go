package checkout

import (
	"context"
	"errors"
	"testing"

	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionBuildsProviderRequest(t *testing.T) {
	f := newFixture(t)
	uid := "user-7"

	result, err := f.service.CreateSession(context.Background(), CreateSessionInput{
		UserID: &uid,
		Lines: []domain.Line{
			{ArtworkID: 3, UnitPrice: 19.99, Quantity: 2},
			{ArtworkID: 8, UnitPrice: 120, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test", result.SessionID)
	assert.Equal(t, "unpaid", result.PaymentStatus)
	assert.Equal(t, "open", result.Status)

	req := f.provider.lastRequest
	require.NotNil(t, req)
	require.NotNil(t, req.ClientReferenceID)
	assert.Equal(t, "user-7", *req.ClientReferenceID)
	assert.Equal(t, "https://gallery.example.com/successful-payment?sessionId={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://gallery.example.com/unsuccessful-payment", req.CancelURL)

	require.Len(t, req.Lines, 2)
	assert.Equal(t, "3", req.Lines[0].Ref)
	assert.Equal(t, int64(1999), req.Lines[0].UnitAmountCents)
	assert.Equal(t, int64(2), req.Lines[0].Quantity)
	assert.Equal(t, "8", req.Lines[1].Ref)
	assert.Equal(t, int64(12000), req.Lines[1].UnitAmountCents)
}

func TestCreateSessionGuestOmitsClientReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateSession(context.Background(), CreateSessionInput{
		Lines: []domain.Line{{ArtworkID: 1, UnitPrice: 10, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Nil(t, f.provider.lastRequest.ClientReferenceID)
}

func TestCreateSessionValidation(t *testing.T) {
	cases := []struct {
		name  string
		lines []domain.Line
	}{
		{"empty cart", nil},
		{"zero quantity", []domain.Line{{ArtworkID: 1, UnitPrice: 10, Quantity: 0}}},
		{"negative price", []domain.Line{{ArtworkID: 1, UnitPrice: -1, Quantity: 1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.service.CreateSession(context.Background(), CreateSessionInput{Lines: tc.lines})
			require.Error(t, err)
			assert.Nil(t, f.provider.lastRequest, "provider must not be called on invalid input")
		})
	}
}

func TestCreateSessionWithoutCredential(t *testing.T) {
	f := newFixture(t)
	f.provider.createErr = domain.ErrNoCredential

	_, err := f.service.CreateSession(context.Background(), CreateSessionInput{
		Lines: []domain.Line{{ArtworkID: 1, UnitPrice: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNoCredential)
	assert.NotErrorIs(t, err, domain.ErrProvider)
}

func TestCreateSessionProviderFailureWrapped(t *testing.T) {
	f := newFixture(t)
	f.provider.createErr = errors.New("stripe 502")

	_, err := f.service.CreateSession(context.Background(), CreateSessionInput{
		Lines: []domain.Line{{ArtworkID: 1, UnitPrice: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrProvider)
}
