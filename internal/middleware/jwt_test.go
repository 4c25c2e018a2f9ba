package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-attendance-api/internal/models"
	appErrors "github.com/noah-isme/trainer-attendance-api/pkg/errors"
	"github.com/noah-isme/trainer-attendance-api/pkg/logger"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	calls  int
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.calls++
	return s.claims, s.err
}

func newJWTRouter(v tokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", JWT(v), func(c *gin.Context) {
		claims, _ := c.Get(ContextUserKey)
		subject := c.GetString(logger.SubjectKey)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.(*models.JWTClaims).UserID, "subject": subject})
	})
	return r
}

func TestJWTMissingHeader(t *testing.T) {
	v := &stubValidator{}
	r := newJWTRouter(v)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrNotAuthenticated.Code, body.Error.Code)
	assert.Zero(t, v.calls)
}

func TestJWTMalformedHeader(t *testing.T) {
	r := newJWTRouter(&stubValidator{})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTInvalidToken(t *testing.T) {
	r := newJWTRouter(&stubValidator{err: appErrors.Wrap(errors.New("expired"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTValidTokenSetsClaims(t *testing.T) {
	r := newJWTRouter(&stubValidator{claims: &models.JWTClaims{UserID: "auth-1"}})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"auth-1","subject":"auth-1"}`, w.Body.String())
}
