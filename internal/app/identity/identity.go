package identity

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrAnonymous       = errors.New("identity: caller is not identified")
	ErrRoleNotGranted  = errors.New("identity: role not granted to caller")
	ErrForbidden       = errors.New("identity: active role does not allow this action")
	ErrMalformedClaims = errors.New("identity: user data is not a JSON object")
)

const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

// Principal is the resolved caller. Roles are lower-case and unique.
type Principal struct {
	UserID     string
	Roles      []string
	ActiveRole string
}

func (p Principal) Anonymous() bool {
	return p.UserID == ""
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, strings.ToLower(strings.TrimSpace(role)))
}

// ActsAs reports whether the active role satisfies role. Admins act as hosts.
func (p Principal) ActsAs(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if p.ActiveRole == role {
		return true
	}
	return role == RoleHost && p.ActiveRole == RoleAdmin
}

func (p Principal) clone() Principal {
	p.Roles = slices.Clone(p.Roles)
	return p
}

// Raw is the caller as the gateway forwards it: every field is optional and
// may come in several shapes.
type Raw struct {
	UserID   string
	Roles    string
	UserData string
}

// Resolve normalises a raw caller. An explicit UserID wins over ids found in
// UserData; roles from both sources are merged. The active role starts as
// guest when granted, otherwise the first role.
func Resolve(raw Raw) (Principal, error) {
	var p Principal
	var claims map[string]any
	if data := strings.TrimSpace(raw.UserData); data != "" {
		if err := json.Unmarshal([]byte(data), &claims); err != nil || claims == nil {
			return Principal{}, ErrMalformedClaims
		}
	}

	p.UserID = strings.TrimSpace(raw.UserID)
	if p.UserID == "" {
		p.UserID = UserIDFromClaims(claims)
	}
	if p.UserID == "" {
		return Principal{}, ErrAnonymous
	}

	roles := NormalizeRoles(raw.Roles)
	if claims != nil {
		roles = append(roles, rolesFromValue(claims["roles"])...)
		roles = append(roles, rolesFromValue(claims["role"])...)
	}
	p.Roles = dedupe(roles)

	switch {
	case p.HasRole(RoleGuest):
		p.ActiveRole = RoleGuest
	case len(p.Roles) > 0:
		p.ActiveRole = p.Roles[0]
	}
	return p, nil
}

// Establish resolves raw and, when activeRole is set, switches to it. A role
// the caller was not granted fails with ErrRoleNotGranted.
func Establish(raw Raw, activeRole string) (*Context, error) {
	p, err := Resolve(raw)
	if err != nil {
		return nil, err
	}
	ic := NewContext(p)
	if strings.TrimSpace(activeRole) == "" {
		return ic, nil
	}
	if err := ic.SwitchRole(activeRole); err != nil {
		return nil, err
	}
	return ic, nil
}

// NormalizeRoles accepts a JSON array, a JSON string or a comma separated
// list. Entries are trimmed, lower-cased, split on commas and de-duplicated.
func NormalizeRoles(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return dedupe(rolesFromValue(decoded))
	}
	return dedupe(splitRoles(raw))
}

func rolesFromValue(v any) []string {
	switch val := v.(type) {
	case string:
		return splitRoles(val)
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, splitRoles(s)...)
			}
		}
		return out
	default:
		return nil
	}
}

func splitRoles(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupe(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

var userIDPaths = [][]string{
	{"id"},
	{"_id"},
	{"userId"},
	{"user", "id"},
	{"user", "_id"},
	{"data", "id"},
	{"data", "_id"},
	{"payload", "sub"},
}

// UserIDFromClaims returns the first non-empty id among the known locations.
func UserIDFromClaims(claims map[string]any) string {
	for _, path := range userIDPaths {
		if id := lookup(claims, path); id != "" {
			return id
		}
	}
	return ""
}

func lookup(m map[string]any, path []string) string {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Context is the single owner of a caller's identity during a request.
// Reads go through Current; the active role only changes through SwitchRole.
type Context struct {
	mu        sync.RWMutex
	principal Principal
}

func NewContext(p Principal) *Context {
	return &Context{principal: p.clone()}
}

func (c *Context) Current() Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal.clone()
}

func (c *Context) SwitchRole(role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.principal.HasRole(role) {
		return ErrRoleNotGranted
	}
	c.principal.ActiveRole = role
	return nil
}

type ctxKey struct{}

func WithContext(ctx context.Context, ic *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ic)
}

func FromContext(ctx context.Context) (*Context, bool) {
	ic, ok := ctx.Value(ctxKey{}).(*Context)
	return ic, ok && ic != nil
}

// PrincipalFrom returns the caller bound to ctx, or ErrAnonymous.
func PrincipalFrom(ctx context.Context) (Principal, error) {
	ic, ok := FromContext(ctx)
	if !ok {
		return Principal{}, ErrAnonymous
	}
	p := ic.Current()
	if p.Anonymous() {
		return Principal{}, ErrAnonymous
	}
	return p, nil
}
