package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), 15*time.Minute)
	raw, err := iss.Issue(42, "maria", "gerente", []string{"tickets", "compras"})
	require.NoError(t, err)

	c, err := iss.Parse(raw)
	require.NoError(t, err)
	id, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "maria", c.Username)
	assert.Equal(t, "gerente", c.Role)
	assert.Equal(t, []string{"tickets", "compras"}, c.Modulos)
}

func TestParseRejectsExpired(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Minute)
	base := time.Now()
	iss.now = func() time.Time { return base }
	raw, err := iss.Issue(1, "a", "operador", nil)
	require.NoError(t, err)

	iss.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	raw, err := NewIssuer([]byte("one"), time.Minute).Issue(1, "a", "", nil)
	require.NoError(t, err)
	_, err = NewIssuer([]byte("two"), time.Minute).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	secret := []byte("s")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "x",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})
	raw, err := tok.SignedString(secret)
	require.NoError(t, err)
	_, err = NewIssuer(secret, time.Minute).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewIssuer([]byte("s"), time.Minute).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalid)
}
