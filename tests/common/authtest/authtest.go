//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"tutorbook/internal/handler/middleware"
	"tutorbook/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TokenFor signs a short-lived access token for the given user. Tests talk to
// the API the same way clients do, so no session fixture is needed.
func TokenFor(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role middleware.Role) string {
	t.Helper()

	token, err := middleware.IssueToken(cfg, userID, role, time.Now().Add(time.Hour))
	require.NoError(t, err, "failed to issue test token")
	return token
}
