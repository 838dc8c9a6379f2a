// Package policy implements access policies and their evaluation.
//
// A policy grants or denies a set of actions over resource path patterns.
// Evaluation is default-deny and deny-overrides: a request is allowed only
// when at least one attached policy allows it and no attached policy denies
// it.
package policy

//go:generate go run github.com/dmarkham/enumer -type=Effect -trimprefix=Effect -transform=lower -json -output=effect.gen.go
//go:generate go run github.com/dmarkham/enumer -type=Action -trimprefix=Action -transform=lower -json -output=action.gen.go

// Effect is the outcome a policy applies to matching requests.
type Effect int

const (
	EffectAllow Effect = iota
	EffectDeny
)

// Action is the operation class a request performs on a resource.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// Policy is an immutable access rule. Policies attach to principals; a
// principal's effective permission set is the union of its policies' allow
// grants minus any matching deny grants.
type Policy struct {
	ID        string   `json:"id"`
	Effect    Effect   `json:"effect"`
	Actions   []Action `json:"actions"`
	Resources []string `json:"resources"`
}

// Request is an (action, resource path) pair under evaluation. The principal
// is implicit: callers evaluate a Request against the policies attached to
// one principal.
type Request struct {
	Action   Action
	Resource string
}

func (p *Policy) containsAction(action Action) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Evaluate decides a request against a set of policies. A deny match wins
// immediately; otherwise any allow match wins; no match at all is a deny.
// Malformed resource patterns never match, so a broken policy can only
// narrow access, never widen it.
func Evaluate(request Request, policies []*Policy) bool {
	allowed := false

	for _, p := range policies {
		if !p.containsAction(request.Action) {
			continue
		}
		for _, resource := range p.Resources {
			pattern, err := Compile(resource)
			if err != nil {
				continue
			}
			if !pattern.Matches(request.Resource) {
				continue
			}
			if p.Effect == EffectDeny {
				return false
			}
			allowed = true
			break
		}
	}
	return allowed
}
