package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicer/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionPayload struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsCurrent bool      `json:"is_current"`
}

func TestSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv := NewTestServer(t, NewSharedTestDB(t))

	t.Run("logout revokes the token", func(t *testing.T) {
		seller := srv.Register(t, "laura")

		w := seller.API.Do(t, http.MethodGet, "/api/v1/auth/user", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = seller.API.Do(t, http.MethodPost, "/api/v1/auth/logout", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = seller.API.Do(t, http.MethodGet, "/api/v1/auth/user", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, srv.DB.Count("sessions", "user_id = ?", seller.ID))
	})

	t.Run("other sessions can be listed and ended", func(t *testing.T) {
		seller := srv.Register(t, "mantas")
		phone := srv.API.WithToken(srv.Login(t, seller.Email, "phone"))

		w := seller.API.Do(t, http.MethodGet, "/api/v1/auth/sessions", nil)
		sessions := testutil.DecodeData[[]sessionPayload](t, w)
		require.Len(t, sessions, 2)

		var phoneID uuid.UUID
		for _, s := range sessions {
			if s.Name == "phone" {
				phoneID = s.ID
				assert.False(t, s.IsCurrent)
			} else {
				assert.True(t, s.IsCurrent)
			}
		}
		require.NotEqual(t, uuid.Nil, phoneID)

		w = seller.API.Do(t, http.MethodDelete, "/api/v1/auth/sessions/"+phoneID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = phone.Do(t, http.MethodGet, "/api/v1/auth/user", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = seller.API.Do(t, http.MethodGet, "/api/v1/auth/user", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("sessions of another seller are invisible", func(t *testing.T) {
		a := srv.Register(t, "greta")
		b := srv.Register(t, "vytas")

		w := b.API.Do(t, http.MethodGet, "/api/v1/auth/sessions", nil)
		bSessions := testutil.DecodeData[[]sessionPayload](t, w)
		require.Len(t, bSessions, 1)

		w = a.API.Do(t, http.MethodDelete, "/api/v1/auth/sessions/"+bSessions[0].ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = b.API.Do(t, http.MethodGet, "/api/v1/auth/user", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("logout-all ends every session", func(t *testing.T) {
		seller := srv.Register(t, "ieva")
		laptop := srv.API.WithToken(srv.Login(t, seller.Email, "laptop"))

		w := seller.API.Do(t, http.MethodPost, "/api/v1/auth/logout-all", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, http.StatusUnauthorized, seller.API.Do(t, http.MethodGet, "/api/v1/auth/user", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, laptop.Do(t, http.MethodGet, "/api/v1/auth/user", nil).Code)
		assert.Zero(t, srv.DB.Count("sessions", "user_id = ?", seller.ID))
	})

	t.Run("password change replaces every session", func(t *testing.T) {
		seller := srv.Register(t, "jurgis")

		w := seller.API.Do(t, http.MethodPut, "/api/v1/auth/password", map[string]string{
			"current_password":      "wrong-horse",
			"password":              "battery-staple",
			"password_confirmation": "battery-staple",
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "INVALID_PASSWORD")

		w = seller.API.Do(t, http.MethodPut, "/api/v1/auth/password", map[string]string{
			"current_password":      "correct-horse",
			"password":              "battery-staple",
			"password_confirmation": "battery-staple",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		fresh := testutil.DecodeData[authPayload](t, w).Token
		require.NotEmpty(t, fresh)

		assert.Equal(t, http.StatusUnauthorized, seller.API.Do(t, http.MethodGet, "/api/v1/auth/user", nil).Code)
		assert.Equal(t, http.StatusOK, srv.API.WithToken(fresh).Do(t, http.MethodGet, "/api/v1/auth/user", nil).Code)

		w = srv.API.Do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"email":    seller.Email,
			"password": "correct-horse",
		})
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "INVALID_CREDENTIALS")

		w = srv.API.Do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"email":    seller.Email,
			"password": "battery-staple",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		seller := srv.Register(t, "darius")

		w := srv.API.Do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"name":                  "Darius",
			"email":                 seller.Email,
			"password":              "correct-horse",
			"password_confirmation": "correct-horse",
		})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})
}
