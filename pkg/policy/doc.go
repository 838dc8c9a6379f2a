// Package policy implements attribute-based access control over vault
// resource paths.
//
// A policy carries an effect (allow or deny), a set of actions (read,
// write) and a set of resource patterns. Evaluation is default deny:
// a request is permitted only when at least one allow rule matches and
// no deny rule does. Deny always wins.
//
// # Resource Patterns
//
// Patterns address the hierarchical resource paths the vault exposes,
// such as "/collections/people/records/rec_1/email.plain". A pattern is
// either "*" (every resource) or a "/"-rooted path where:
//
//   - a "*" segment matches exactly one path segment
//   - a trailing "*" matches any remaining suffix
//   - the last segment may be a "field.format" pair, with "*" allowed
//     on either side of the dot
//
// # Bundles
//
// Bundles declare policies and principals in YAML so an environment can
// be provisioned in one operation:
//
//	policies:
//	  - name: masked-only
//	    effect: allow
//	    actions: [read]
//	    resources:
//	      - "/collections/people/records/*/*.masked"
//	principals:
//	  - username: analyst
//	    password: ...
//	    policies: [masked-only]
package policy
