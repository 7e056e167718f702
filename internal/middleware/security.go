package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/logger"
)

// SecurityConfig holds configuration for the security middleware
type SecurityConfig struct {
	RateLimit  int           // Requests per window
	RateWindow time.Duration // Time window for rate limiting

	BackoffMultiplier  float64
	MaxBackoffDuration time.Duration
	BackoffResetTime   time.Duration // Time before recorded violations are forgotten

	DeniedIPs      []string // IP addresses/CIDR ranges
	TrustedProxies []string
}

// DefaultSecurityConfig returns the limits used for the auth endpoints.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RateLimit:          100,
		RateWindow:         time.Minute,
		BackoffMultiplier:  2.0,
		MaxBackoffDuration: time.Hour,
		BackoffResetTime:   24 * time.Hour,
		TrustedProxies: []string{
			"172.18.0.0/16", // Docker network
		},
	}
}

type SecurityMiddleware struct {
	config      SecurityConfig
	redisClient *redis.Client
	deniedNets  []*net.IPNet
	trustedNets []*net.IPNet
	now         func() time.Time
}

func NewSecurityMiddleware(config SecurityConfig, redisClient *redis.Client) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:      config,
		redisClient: redisClient,
		deniedNets:  parseNetworks(config.DeniedIPs),
		trustedNets: parseNetworks(config.TrustedProxies),
		now:         time.Now,
	}
}

// Headers sets the standard security headers on every response.
func Headers(c *fiber.Ctx) error {
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set("X-Frame-Options", "DENY")
	c.Set("X-XSS-Protection", "1; mode=block")
	c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	return c.Next()
}

// Handler rate limits per client IP, backing off exponentially on repeat violations.
func (sm *SecurityMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientIP := sm.getClientIP(c)

		if sm.isDenied(clientIP) {
			logger.Warn("denied IP blocked", zap.String("ip", clientIP))
			return customErrors.NewTypedError("Access denied", customErrors.ErrorTypeForbidden, fiber.StatusForbidden, nil)
		}

		backoff, limited := sm.checkRateLimit(c.UserContext(), clientIP)
		if limited {
			retryAfter := int(math.Ceil(backoff.Seconds()))
			logger.Warn("rate limit exceeded", zap.String("ip", clientIP), zap.Duration("backoff", backoff))

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			c.Set("X-RateLimit-Reset", sm.now().Add(backoff).Format(time.RFC3339))
			return customErrors.RateLimitExceeded.WithExtensions(map[string]interface{}{
				"retryAfter": retryAfter,
			})
		}

		return c.Next()
	}
}

// getClientIP trusts forwarding headers only from configured proxies.
func (sm *SecurityMiddleware) getClientIP(c *fiber.Ctx) string {
	remoteIP := c.IP()
	if !sm.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return remoteIP
}

func (sm *SecurityMiddleware) checkRateLimit(ctx context.Context, ip string) (time.Duration, bool) {
	now := sm.now()
	windowStart := now.Truncate(sm.config.RateWindow)

	countKey := fmt.Sprintf("ratelimit:count:%s:%d", ip, windowStart.Unix())
	violationKey := fmt.Sprintf("ratelimit:violations:%s", ip)
	backoffKey := fmt.Sprintf("ratelimit:backoff:%s", ip)

	if backoffUntil, err := sm.redisClient.Get(ctx, backoffKey).Int64(); err == nil && backoffUntil > now.Unix() {
		return time.Unix(backoffUntil, 0).Sub(now), true
	}

	pipe := sm.redisClient.TxPipeline()
	incrCmd := pipe.Incr(ctx, countKey)
	pipe.Expire(ctx, countKey, sm.config.RateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		// fail open
		logger.Error("redis error in rate limiter", zap.Error(err))
		return 0, false
	}

	count := incrCmd.Val()
	if count <= int64(sm.config.RateLimit) {
		if count == 1 {
			sm.redisClient.Del(ctx, violationKey)
		}
		return 0, false
	}

	violations, err := sm.redisClient.Incr(ctx, violationKey).Result()
	if err != nil {
		return sm.config.RateWindow, true
	}
	sm.redisClient.Expire(ctx, violationKey, sm.config.BackoffResetTime)

	backoff := sm.calculateBackoff(violations)
	sm.redisClient.Set(ctx, backoffKey, now.Add(backoff).Unix(), backoff)
	return backoff, true
}

// calculateBackoff is RateWindow * multiplier^(violations-1), capped at MaxBackoffDuration.
func (sm *SecurityMiddleware) calculateBackoff(violations int64) time.Duration {
	if violations < 1 {
		violations = 1
	}
	backoff := float64(sm.config.RateWindow) * math.Pow(sm.config.BackoffMultiplier, float64(violations-1))
	if backoff > float64(sm.config.MaxBackoffDuration) {
		return sm.config.MaxBackoffDuration
	}
	return time.Duration(backoff)
}

func (sm *SecurityMiddleware) isTrustedProxy(ipStr string) bool {
	return containsIP(sm.trustedNets, ipStr)
}

func (sm *SecurityMiddleware) isDenied(ipStr string) bool {
	return containsIP(sm.deniedNets, ipStr)
}

func containsIP(networks []*net.IPNet, ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// parseNetworks parses a list of IP addresses/CIDR ranges
func parseNetworks(cidrs []string) []*net.IPNet {
	var networks []*net.IPNet

	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}

		if !strings.Contains(cidr, "/") {
			ip := net.ParseIP(cidr)
			if ip != nil {
				if ip.To4() != nil {
					cidr += "/32"
				} else {
					cidr += "/128"
				}
			}
		}

		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("invalid CIDR range", zap.String("cidr", cidr), zap.Error(err))
			continue
		}
		networks = append(networks, network)
	}

	return networks
}
