package verification

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	PurposeVerifyEmail   = "verifyEmail"
	PurposeResetPassword = "resetPassword"
)

var ErrCodeNotFound = errors.New("action code not found")

// ActionCode is what a one-time code redeems to.
type ActionCode struct {
	Purpose string    `json:"purpose"`
	UserID  string    `json:"uid"`
	Email   string    `json:"email"`
	Created time.Time `json:"created"`
}

// ActionCodes stores one-time out-of-band codes in redis. A code can be redeemed once.
type ActionCodes struct {
	rdb *redis.Client
}

func NewActionCodes(rdb *redis.Client) *ActionCodes {
	return &ActionCodes{rdb: rdb}
}

func codeKey(code string) string {
	return "action_code:" + code
}

func (a *ActionCodes) Create(ctx context.Context, purpose, userID, email string, ttl time.Duration) (string, error) {
	entry := ActionCode{Purpose: purpose, UserID: userID, Email: email, Created: time.Now().UTC()}

	var sb strings.Builder
	if err := json.NewEncoder(&sb).Encode(entry); err != nil {
		return "", fmt.Errorf("serialize action code: %w", err)
	}

	for range 3 {
		code := generateCode()
		ok, err := a.rdb.SetNX(ctx, codeKey(code), sb.String(), ttl).Result()
		if err != nil {
			return "", fmt.Errorf("store action code in redis: %w", err)
		}
		if ok {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique action code")
}

// Redeem consumes code. A code issued for a different purpose is consumed and rejected.
func (a *ActionCodes) Redeem(ctx context.Context, purpose, code string) (ActionCode, error) {
	if code == "" {
		return ActionCode{}, ErrCodeNotFound
	}

	val, err := a.rdb.GetDel(ctx, codeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ActionCode{}, ErrCodeNotFound
		}
		return ActionCode{}, fmt.Errorf("retrieve action code from redis: %w", err)
	}

	var entry ActionCode
	if err := json.NewDecoder(strings.NewReader(val)).Decode(&entry); err != nil {
		return ActionCode{}, fmt.Errorf("deserialize action code: %w", err)
	}
	if entry.Purpose != purpose {
		return ActionCode{}, ErrCodeNotFound
	}

	return entry, nil
}

func generateCode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
}
