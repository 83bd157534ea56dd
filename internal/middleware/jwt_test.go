package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/utils"
)

const testSecret = "unit-test-secret"

func echoWith(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	g := e.Group("", mw...)
	g.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	})
	return e
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, model.RoleCustomer, 15)
	require.NoError(t, err)

	e := echoWith(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"Customer"`)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	e := echoWith(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("someone-else", 7, model.RoleCustomer, 15)
	require.NoError(t, err)

	e := echoWith(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    int
	}{
		{model.RoleAdmin, []string{model.RoleAdmin}, http.StatusOK},
		{model.RoleHotelManager, []string{model.RoleHotelManager, model.RoleAdmin}, http.StatusOK},
		{model.RoleCustomer, []string{model.RoleHotelManager, model.RoleAdmin}, http.StatusForbidden},
		{"", []string{model.RoleCustomer}, http.StatusForbidden},
	}
	for _, tc := range cases {
		at, err := utils.NewAccessToken(testSecret, 1, tc.role, 15)
		require.NoError(t, err)

		e := echoWith(JWTAuth(testSecret), RequireRole(tc.allowed...))
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+at.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equalf(t, tc.want, rec.Code, "role %q allowed %v", tc.role, tc.allowed)
	}
}

func TestRequireRoleWithoutJWT(t *testing.T) {
	// RequireRole alone (no JWTAuth before it) must fail closed.
	e := echoWith(RequireRole(model.RoleAdmin))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
