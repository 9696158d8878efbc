package security

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/algo-insight/code-mentor/internal/types"
	"github.com/gin-gonic/gin"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxCodeLength  int           `json:"max_code_length"`
	MaxErrorLength int           `json:"max_error_length"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
	TrustedProxies []string      `json:"trusted_proxies"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxCodeLength:  10000,
		MaxErrorLength: 4000,
		EnableCORS:     true,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		TrustedProxies: []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware provides request hardening for the analysis API.
// Submitted code is treated as opaque text: it is length and encoding
// checked but never rewritten, since stripping characters would change
// what the pipeline analyzes.
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

// ValidateCode checks a submitted code snippet without modifying it
func (sm *SecurityMiddleware) ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("code field is required")
	}

	if len(code) > sm.config.MaxCodeLength {
		return fmt.Errorf("code exceeds maximum length of %d characters", sm.config.MaxCodeLength)
	}

	// Null bytes break sqlite TEXT storage and signal binary payloads
	if strings.Contains(code, "\x00") {
		return fmt.Errorf("code contains invalid characters")
	}

	if !utf8.ValidString(code) {
		return fmt.Errorf("code contains invalid UTF-8 encoding")
	}

	return nil
}

// ValidateErrorText checks the optional error message field
func (sm *SecurityMiddleware) ValidateErrorText(errText string) error {
	if len(errText) > sm.config.MaxErrorLength {
		return fmt.Errorf("error exceeds maximum length of %d characters", sm.config.MaxErrorLength)
	}

	if strings.Contains(errText, "\x00") || !utf8.ValidString(errText) {
		return fmt.Errorf("error contains invalid characters")
	}

	return nil
}

// SecurityHeaders adds security headers to responses
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	// Prevent MIME type sniffing
	c.Header("X-Content-Type-Options", "nosniff")

	// Prevent clickjacking
	c.Header("X-Frame-Options", "DENY")

	// XSS protection
	c.Header("X-XSS-Protection", "1; mode=block")

	// HSTS (HTTP Strict Transport Security) - only over TLS
	if c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Header("Content-Security-Policy", "default-src 'self'")

	// Referrer Policy
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

	c.Next()
}

// ValidateContentType validates request content type
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")

	allowedTypes := []string{
		"application/json",
	}

	if c.Request.Method == http.MethodPost && contentType != "" {
		found := false
		for _, allowed := range allowedTypes {
			if strings.Contains(strings.ToLower(contentType), allowed) {
				found = true
				break
			}
		}

		if !found {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "unsupported content type",
			})
			c.Abort()
			return
		}
	}

	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	// Create a timeout context
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	// Replace request context
	c.Request = c.Request.WithContext(ctx)

	// Set timeout header for client
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// ValidateAnalyzeRequest validates the analyze endpoint request body
// and stores the parsed request in the context for the handler
func (sm *SecurityMiddleware) ValidateAnalyzeRequest(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid JSON format",
		})
		c.Abort()
		return
	}

	if err := sm.ValidateCode(req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("code validation failed: %v", err),
		})
		c.Abort()
		return
	}

	if err := sm.ValidateErrorText(req.Error); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("error validation failed: %v", err),
		})
		c.Abort()
		return
	}

	c.Set("analyze_request", req)
	c.Next()
}
