package model

import (
	"time"

	"github.com/lib/pq"

	"github.com/doodlesbykumbi/piivault/pkg/policy"
)

type Policy struct {
	ID        string         `gorm:"primaryKey"`
	Effect    string         `gorm:"not null"`
	Actions   pq.StringArray `gorm:"type:text[]"`
	Resources pq.StringArray `gorm:"type:text[]"`
	CreatedAt time.Time
}

func (Policy) TableName() string {
	return "policies"
}

// ToRule converts the stored row into its evaluation form.
func (p *Policy) ToRule() (*policy.Policy, error) {
	effect, err := policy.EffectString(p.Effect)
	if err != nil {
		return nil, err
	}

	actions := make([]policy.Action, 0, len(p.Actions))
	for _, name := range p.Actions {
		action, err := policy.ActionString(name)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	return &policy.Policy{
		ID:        p.ID,
		Effect:    effect,
		Actions:   actions,
		Resources: []string(p.Resources),
	}, nil
}

// FromRule converts an evaluation-form policy into its stored row.
func FromRule(rule *policy.Policy) *Policy {
	actions := make(pq.StringArray, 0, len(rule.Actions))
	for _, action := range rule.Actions {
		actions = append(actions, action.String())
	}

	return &Policy{
		ID:        rule.ID,
		Effect:    rule.Effect.String(),
		Actions:   actions,
		Resources: pq.StringArray(rule.Resources),
	}
}
