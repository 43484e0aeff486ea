package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userCtxKey = "storefront.user"

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type limiter interface {
	Hit(ctx context.Context, key string) (ratelimit.Result, error)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery turns panics into the error envelope.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				abortWithMessage(c, http.StatusInternalServerError, internalMessage)
			}
		}()
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// isAuthenticated resolves the bearer access token to a user and stores it
// in the gin context.
func isAuthenticated(auth authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWithMessage(c, http.StatusUnauthorized, "Authorization token is missing or invalid")
			return
		}
		u, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.Set(userCtxKey, u)
		c.Next()
	}
}

func isAdmin(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok || !u.IsAdmin() {
		abortWithMessage(c, http.StatusForbidden, "Access denied: admins only")
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// rateLimit counts requests per route, client IP and email. A limiter
// failure lets the request through.
func rateLimit(l limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + c.ClientIP()
		if email := requestEmail(c); email != "" {
			key += ":" + email
		}

		res, err := l.Hit(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "Too many requests, please try again later",
				"retry_after": retry,
			})
			return
		}
		c.Next()
	}
}

// requestEmail reads the email from the path or a JSON body, restoring the
// body for the handler.
func requestEmail(c *gin.Context) string {
	if email := c.Param("email"); email != "" {
		return strings.ToLower(strings.TrimSpace(email))
	}
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	var in struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(in.Email))
}
