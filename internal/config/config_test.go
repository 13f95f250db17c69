package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "")
	t.Setenv("AUTH_CREDENTIAL_MODE", "")
	t.Setenv("LEAD_STAGE_POLICY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, CredentialModeAcceptAny, cfg.Auth.CredentialMode)
	assert.Equal(t, StagePolicyPermissive, cfg.Workflow.StagePolicy)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_CREDENTIAL_MODE", "BCRYPT")
	t.Setenv("LEAD_STAGE_POLICY", "forward_only")
	t.Setenv("LOGIN_RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("TEAM_ROSTERS", "lead-1=sale-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CredentialModeBcrypt, cfg.Auth.CredentialMode)
	assert.Equal(t, StagePolicyForwardOnly, cfg.Workflow.StagePolicy)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "lead-1=sale-1", cfg.Teams.Rosters)
}

func TestLoad_RejectsUnknownModes(t *testing.T) {
	t.Setenv("AUTH_CREDENTIAL_MODE", "ldap")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_CREDENTIAL_MODE", "")
	t.Setenv("LEAD_STAGE_POLICY", "backwards")
	_, err = Load()
	assert.Error(t, err)
}
