package audit

import (
	"fmt"
	"strings"
)

// AuthenticateEvent represents an authentication audit event
type AuthenticateEvent struct {
	Username     string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string { return "authn" }

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", e.Username)
	}
	msg := fmt.Sprintf("%s failed to authenticate", e.Username)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Succeeded() bool { return e.Success }

func (e AuthenticateEvent) Fields() map[string]interface{} {
	return map[string]interface{}{
		"user":   e.Username,
		"ip":     e.ClientIP,
		"result": resultString(e.Success),
	}
}

// CheckEvent represents an authorization check audit event
type CheckEvent struct {
	Username string
	ClientIP string
	Action   string
	Resource string
	Allowed  bool
}

func (e CheckEvent) MessageID() string { return "check" }

func (e CheckEvent) Message() string {
	if e.Allowed {
		return fmt.Sprintf("%s checked %s on %s: allowed", e.Username, e.Action, e.Resource)
	}
	return fmt.Sprintf("%s checked %s on %s: denied", e.Username, e.Action, e.Resource)
}

func (e CheckEvent) Succeeded() bool { return e.Allowed }

func (e CheckEvent) Fields() map[string]interface{} {
	return map[string]interface{}{
		"user":     e.Username,
		"ip":       e.ClientIP,
		"action":   e.Action,
		"resource": e.Resource,
		"result":   resultString(e.Allowed),
	}
}

// AccessEvent represents a record field access audit event
type AccessEvent struct {
	Username     string
	ClientIP     string
	Collection   string
	RecordID     string
	Selectors    []string
	Operation    string // "read", "create", "update", "delete"
	Success      bool
	ErrorMessage string
}

func (e AccessEvent) MessageID() string { return "access" }

func (e AccessEvent) Message() string {
	resource := fmt.Sprintf("record %s in collection %s", e.RecordID, e.Collection)
	if e.RecordID == "" {
		resource = fmt.Sprintf("records in collection %s", e.Collection)
	}
	if e.Success {
		return fmt.Sprintf("%s performed %s on %s", e.Username, e.Operation, resource)
	}
	msg := fmt.Sprintf("%s tried to %s %s", e.Username, e.Operation, resource)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AccessEvent) Succeeded() bool { return e.Success }

func (e AccessEvent) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"user":       e.Username,
		"ip":         e.ClientIP,
		"collection": e.Collection,
		"operation":  e.Operation,
		"result":     resultString(e.Success),
	}
	if e.RecordID != "" {
		fields["record"] = e.RecordID
	}
	if len(e.Selectors) > 0 {
		fields["selectors"] = strings.Join(e.Selectors, ",")
	}
	return fields
}

// TokenizeEvent represents a tokenize or detokenize audit event
type TokenizeEvent struct {
	Username     string
	ClientIP     string
	TokenID      string
	RecordID     string
	Field        string
	Format       string
	Operation    string // "tokenize" or "detokenize"
	Success      bool
	ErrorMessage string
}

func (e TokenizeEvent) MessageID() string { return "token" }

func (e TokenizeEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s performed %s for field %s of record %s", e.Username, e.Operation, e.Field, e.RecordID)
	}
	msg := fmt.Sprintf("%s tried to %s field %s of record %s", e.Username, e.Operation, e.Field, e.RecordID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e TokenizeEvent) Succeeded() bool { return e.Success }

func (e TokenizeEvent) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"user":      e.Username,
		"ip":        e.ClientIP,
		"record":    e.RecordID,
		"field":     e.Field,
		"operation": e.Operation,
		"result":    resultString(e.Success),
	}
	if e.TokenID != "" {
		fields["token"] = e.TokenID
	}
	if e.Format != "" {
		fields["format"] = e.Format
	}
	return fields
}

// EraseEvent represents a subject erasure audit event
type EraseEvent struct {
	Username       string
	ClientIP       string
	SubjectEID     string
	RecordsDeleted int
	TokensPurged   int
	Success        bool
	ErrorMessage   string
}

func (e EraseEvent) MessageID() string { return "erase" }

func (e EraseEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s erased subject %s (%d records deleted, %d tokens purged)",
			e.Username, e.SubjectEID, e.RecordsDeleted, e.TokensPurged)
	}
	msg := fmt.Sprintf("%s tried to erase subject %s", e.Username, e.SubjectEID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e EraseEvent) Succeeded() bool { return e.Success }

func (e EraseEvent) Fields() map[string]interface{} {
	return map[string]interface{}{
		"user":            e.Username,
		"ip":              e.ClientIP,
		"subject":         e.SubjectEID,
		"records_deleted": e.RecordsDeleted,
		"tokens_purged":   e.TokensPurged,
		"result":          resultString(e.Success),
	}
}

// PolicyEvent represents a policy change audit event
type PolicyEvent struct {
	Username     string
	ClientIP     string
	PolicyID     string
	Operation    string // "create", "delete", "attach", "detach"
	Success      bool
	ErrorMessage string
}

func (e PolicyEvent) MessageID() string { return "policy" }

func (e PolicyEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s performed %s on policy %s", e.Username, e.Operation, e.PolicyID)
	}
	msg := fmt.Sprintf("%s tried to %s policy %s", e.Username, e.Operation, e.PolicyID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PolicyEvent) Succeeded() bool { return e.Success }

func (e PolicyEvent) Fields() map[string]interface{} {
	return map[string]interface{}{
		"user":      e.Username,
		"ip":        e.ClientIP,
		"policy":    e.PolicyID,
		"operation": e.Operation,
		"result":    resultString(e.Success),
	}
}

func resultString(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
