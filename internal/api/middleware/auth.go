package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nineaccord/salesboard/internal/config"
)

const defaultSessionTTL = 30 * time.Minute

// Sessions keeps operator sessions in memory. Every authenticated request
// pushes the expiry forward by the session TTL.
type Sessions struct {
	username     string
	passwordHash []byte
	ttl          time.Duration
	cookieName   string
	cookieSecure bool
	now          func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewSessions(cfg config.AuthConfig) (*Sessions, error) {
	if cfg.Username == "" {
		return nil, errors.New("AUTH_USERNAME must be set")
	}

	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		hash = []byte(cfg.PasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, errors.New("AUTH_PASSWORD_HASH is not a bcrypt hash")
		}
	case cfg.Password != "":
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("AUTH_PASSWORD or AUTH_PASSWORD_HASH must be set")
	}

	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "salesboard_session"
	}

	return &Sessions{
		username:     cfg.Username,
		passwordHash: hash,
		ttl:          ttl,
		cookieName:   cookieName,
		cookieSecure: cfg.CookieSecure,
		now:          time.Now,
		tokens:       make(map[string]time.Time),
	}, nil
}

// Authenticate checks the shared operator credential.
func (s *Sessions) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// Create opens a session and sets its cookie.
func (s *Sessions) Create(c *gin.Context) string {
	token := uuid.NewString()

	s.mu.Lock()
	now := s.now()
	for t, exp := range s.tokens {
		if !now.Before(exp) {
			delete(s.tokens, t)
		}
	}
	s.tokens[token] = now.Add(s.ttl)
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, int(s.ttl.Seconds()), "/", "", s.cookieSecure, true)
	return token
}

// Revoke ends the request's session, if any, and clears the cookie.
func (s *Sessions) Revoke(c *gin.Context) {
	if token, err := c.Cookie(s.cookieName); err == nil {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
	}
	c.SetCookie(s.cookieName, "", -1, "/", "", s.cookieSecure, true)
}

func (s *Sessions) touch(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.tokens[token]
	now := s.now()
	if !ok || !now.Before(exp) {
		delete(s.tokens, token)
		return false
	}
	s.tokens[token] = now.Add(s.ttl)
	return true
}

// RequireSession rejects requests without a live session.
func (s *Sessions) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cookieName)
		if err != nil || !s.touch(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Auth required"})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.cookieName, token, int(s.ttl.Seconds()), "/", "", s.cookieSecure, true)
		c.Next()
	}
}
