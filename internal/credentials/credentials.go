package credentials

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

// Environment is the declared GİB environment
type Environment string

const (
	EnvUnset      Environment = ""
	EnvTest       Environment = "test"
	EnvProduction Environment = "production"
)

// ParseEnvironment normalizes GIB_ENVIRONMENT. ok is false for unknown values.
func ParseEnvironment(s string) (env Environment, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return EnvUnset, true
	case "test":
		return EnvTest, true
	case "production", "prod":
		return EnvProduction, true
	default:
		return EnvUnset, false
	}
}

// Credentials are constructed once at startup and never mutated.
// String and MarshalLogObject never expose the password and mask the username.
type Credentials struct {
	Username    string
	Password    string
	Environment Environment
}

// IsZero reports whether no credential values were configured at all
func (c Credentials) IsZero() bool {
	return strings.TrimSpace(c.Username) == "" && strings.TrimSpace(c.Password) == ""
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{username=%s, password=%s, environment=%s}",
		Mask(c.Username), maskSecret(c.Password), envName(c.Environment))
}

// MarshalLogObject implements zapcore.ObjectMarshaler
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("username", Mask(c.Username))
	enc.AddBool("password_set", c.Password != "")
	enc.AddString("environment", envName(c.Environment))
	return nil
}

// Mask keeps the first and last two characters of a value
func Mask(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<empty>"
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return v[:2] + strings.Repeat("*", len(v)-4) + v[len(v)-2:]
}

func maskSecret(v string) string {
	if v == "" {
		return "<empty>"
	}
	return "<redacted>"
}

func envName(e Environment) string {
	if e == EnvUnset {
		return "unset"
	}
	return string(e)
}

// Outcome is the verdict of Check
type Outcome struct {
	OK                  bool
	PlaceholderDetected bool
	FormatError         bool
	Reason              string
}

// Err converts a failed outcome into a CredentialError; nil when OK
func (o Outcome) Err() error {
	if o.OK {
		return nil
	}
	return model.NewCredentialError(o.Reason, o.PlaceholderDetected)
}

// placeholders are template values shipped in sample .env files
var placeholders = map[string]struct{}{
	"your_gib_username_here": {},
	"your_gib_password_here": {},
	"your_username":          {},
	"your_password":          {},
	"your_vkn":               {},
	"username":               {},
	"password":               {},
	"changeme":               {},
	"change_me":              {},
	"placeholder":            {},
	"xxxxxxxxxx":             {},
	"demo":                   {},
}

// IsPlaceholder reports whether v looks like unedited template text
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if _, ok := placeholders[v]; ok {
		return true
	}
	if strings.HasPrefix(v, "your_") || strings.HasPrefix(v, "your-") {
		return true
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return true
	}
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return true
	}
	return false
}

// Check gates credentials before any gateway is constructed. It has no side effects.
func Check(username, password string) Outcome {
	u := strings.TrimSpace(username)
	p := strings.TrimSpace(password)

	switch {
	case u == "" && p == "":
		return Outcome{FormatError: true, Reason: "username and password are empty"}
	case u == "":
		return Outcome{FormatError: true, Reason: "username is empty"}
	case p == "":
		return Outcome{FormatError: true, Reason: "password is empty"}
	}

	if IsPlaceholder(u) {
		return Outcome{PlaceholderDetected: true, Reason: "username is a template placeholder"}
	}
	if IsPlaceholder(p) {
		return Outcome{PlaceholderDetected: true, Reason: "password is a template placeholder"}
	}

	if r := taxid.Validate(u); !r.Valid || r.Kind != taxid.KindVKN {
		reason := r.Reason
		if r.Valid {
			reason = "expected VKN, got " + string(r.Kind)
		}
		return Outcome{FormatError: true, Reason: "username is not a valid VKN: " + reason}
	}

	return Outcome{OK: true}
}

// Check runs the package-level Check against these credentials
func (c Credentials) Check() Outcome {
	return Check(c.Username, c.Password)
}
