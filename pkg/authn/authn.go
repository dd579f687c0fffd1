// Package authn resolves bearer tokens to the agent authority they control.
// The token is the caller's proof of key control at the service boundary;
// the ledger substrate's Authorize check then compares the resolved
// authority against whatever authority an operation requires.
package authn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/occydefi/solagent-economy/pkg/domain"
)

var ErrUnauthorized = errors.New("unauthorized")

// Caller is an authenticated agent identity.
type Caller struct {
	AgentID   domain.AgentID
	Authority domain.AuthorityKey
}

// AuthenticateBearer maps an Authorization header to the agent that owns the
// token. Only unrevoked tokens of active agents authenticate.
func AuthenticateBearer(ctx context.Context, db *pgxpool.Pool, authorization string) (*Caller, error) {
	token, ok := ParseBearerToken(authorization)
	if !ok {
		return nil, ErrUnauthorized
	}
	var out Caller
	err := db.QueryRow(ctx, `
SELECT a.agent_id, a.authority
FROM agent_tokens t
JOIN agents a ON a.agent_id = t.agent_id
WHERE t.token_hash = $1
  AND t.revoked_at IS NULL
  AND a.is_active
`, HashToken(token)).Scan(&out.AgentID, &out.Authority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &out, nil
}

func ParseBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// HashToken is what gets persisted; raw tokens are only ever shown once, at
// registration.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
