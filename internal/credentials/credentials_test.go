package credentials_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reyhansunduk/efatura-mcp-server/internal/credentials"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		password    string
		ok          bool
		placeholder bool
		format      bool
	}{
		{"valid vkn", "1234567890", "s3cr3t!", true, false, false},
		{"both empty", "", "", false, false, true},
		{"blank username", "   ", "s3cr3t!", false, false, true},
		{"empty password", "1234567890", "", false, false, true},
		{"template username", "your_gib_username_here", "s3cr3t!", false, true, false},
		{"template password", "1234567890", "your_gib_password_here", false, true, false},
		{"angle template", "<GIB_USERNAME>", "s3cr3t!", false, true, false},
		{"shell template", "1234567890", "${GIB_PASSWORD}", false, true, false},
		{"changeme", "1234567890", "CHANGEME", false, true, false},
		{"bad checksum", "1234567891", "s3cr3t!", false, false, true},
		{"tckn instead of vkn", "10000000146", "s3cr3t!", false, false, true},
		{"non digit", "test_user", "test_pass", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := credentials.Check(tt.username, tt.password)
			assert.Equal(t, tt.ok, out.OK)
			assert.Equal(t, tt.placeholder, out.PlaceholderDetected)
			assert.Equal(t, tt.format, out.FormatError)
			if tt.ok {
				assert.NoError(t, out.Err())
				return
			}
			assert.NotEmpty(t, out.Reason)
			assert.Equal(t, model.KindCredential, model.KindOf(out.Err()))
		})
	}
}

func TestCheck_ReasonNeverLeaksValues(t *testing.T) {
	out := credentials.Check("1234567890", "your_secret_value")
	require.False(t, out.OK)
	assert.NotContains(t, out.Reason, "your_secret_value")
	assert.NotContains(t, out.Err().Error(), "your_secret_value")
}

func TestParseEnvironment(t *testing.T) {
	env, ok := credentials.ParseEnvironment("Production")
	assert.True(t, ok)
	assert.Equal(t, credentials.EnvProduction, env)

	env, ok = credentials.ParseEnvironment(" test ")
	assert.True(t, ok)
	assert.Equal(t, credentials.EnvTest, env)

	env, ok = credentials.ParseEnvironment("")
	assert.True(t, ok)
	assert.Equal(t, credentials.EnvUnset, env)

	_, ok = credentials.ParseEnvironment("staging")
	assert.False(t, ok)
}

func TestCredentials_Redaction(t *testing.T) {
	c := credentials.Credentials{
		Username:    "1234567890",
		Password:    "hunter2-very-secret",
		Environment: credentials.EnvTest,
	}

	s := c.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "1234567890")
	assert.Contains(t, s, "12******90")
	assert.NotContains(t, fmt.Sprintf("%v", c), "hunter2")

	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Info("startup", zap.Object("credentials", c))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	creds := fields["credentials"].(map[string]interface{})
	assert.Equal(t, "12******90", creds["username"])
	assert.Equal(t, true, creds["password_set"])
	assert.Equal(t, "test", creds["environment"])
}

func TestMask(t *testing.T) {
	assert.Equal(t, "<empty>", credentials.Mask(""))
	assert.Equal(t, "***", credentials.Mask("abc"))
	assert.Equal(t, "ab**ef", credentials.Mask("abcdef"))
}

func TestIsZero(t *testing.T) {
	assert.True(t, credentials.Credentials{}.IsZero())
	assert.True(t, credentials.Credentials{Environment: credentials.EnvTest}.IsZero())
	assert.False(t, credentials.Credentials{Username: "1234567890"}.IsZero())
}
