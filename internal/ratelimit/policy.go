package ratelimit

import (
	"time"

	"github.com/pkg/errors"
)

// Class names an endpoint class sharing one limit.
type Class string

const (
	ClassPublic  Class = "public"
	ClassAdmin   Class = "admin"
	ClassAuth    Class = "auth"
	ClassWebhook Class = "webhook"
)

// Policy is the limit applied to one endpoint class.
type Policy struct {
	MaxRequests int           `yaml:"maxRequests,omitempty" mapstructure:"maxRequests"`
	Window      time.Duration `yaml:"window,omitempty" mapstructure:"window"`
	KeyPrefix   string        `yaml:"keyPrefix,omitempty" mapstructure:"keyPrefix"`
}

// Validate rejects policies that cannot produce a meaningful decision.
func (p Policy) Validate() error {
	if p.MaxRequests <= 0 {
		return errors.Errorf("maxRequests must be positive, got %d", p.MaxRequests)
	}
	if p.Window <= 0 {
		return errors.Errorf("window must be positive, got %s", p.Window)
	}
	if p.KeyPrefix == "" {
		return errors.New("keyPrefix must not be empty")
	}
	return nil
}

// Policies maps endpoint classes to their limits.
type Policies map[Class]Policy

// DefaultPolicies returns the built-in limit table. auth is kept far stricter than the rest
// because it guards credential guessing.
func DefaultPolicies() Policies {
	return Policies{
		ClassPublic:  {MaxRequests: 100, Window: time.Minute, KeyPrefix: "public"},
		ClassAdmin:   {MaxRequests: 300, Window: time.Minute, KeyPrefix: "admin"},
		ClassAuth:    {MaxRequests: 5, Window: 15 * time.Minute, KeyPrefix: "auth"},
		ClassWebhook: {MaxRequests: 50, Window: time.Minute, KeyPrefix: "webhook"},
	}
}

// Merge returns a copy of p with the non-zero fields of overrides applied on top.
// Classes that only exist in overrides are added.
func (p Policies) Merge(overrides Policies) Policies {
	out := make(Policies, len(p)+len(overrides))
	for c, policy := range p {
		out[c] = policy
	}
	for c, o := range overrides {
		policy := out[c]
		if o.MaxRequests != 0 {
			policy.MaxRequests = o.MaxRequests
		}
		if o.Window != 0 {
			policy.Window = o.Window
		}
		if o.KeyPrefix != "" {
			policy.KeyPrefix = o.KeyPrefix
		}
		if policy.KeyPrefix == "" {
			policy.KeyPrefix = string(c)
		}
		out[c] = policy
	}
	return out
}

// Lookup returns the policy for c.
func (p Policies) Lookup(c Class) (Policy, error) {
	policy, ok := p[c]
	if !ok {
		return Policy{}, errors.Errorf("unknown rate limit class: %s", c)
	}
	return policy, nil
}

// Validate checks every policy in the table and requires auth to admit fewer requests per unit of
// time than public and admin.
func (p Policies) Validate() error {
	for c, policy := range p {
		if err := policy.Validate(); err != nil {
			return errors.Wrapf(err, "rate limit class %s", c)
		}
	}
	auth, ok := p[ClassAuth]
	if !ok {
		return nil
	}
	for _, c := range []Class{ClassPublic, ClassAdmin} {
		other, ok := p[c]
		if ok && auth.perSecond() >= other.perSecond() {
			return errors.Errorf("rate limit class %s must be stricter than %s: %d per %s vs %d per %s",
				ClassAuth, c, auth.MaxRequests, auth.Window, other.MaxRequests, other.Window)
		}
	}
	return nil
}

func (p Policy) perSecond() float64 {
	return float64(p.MaxRequests) / p.Window.Seconds()
}
