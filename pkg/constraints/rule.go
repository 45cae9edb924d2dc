package constraints

import (
	"strings"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Rule is one entry of a validate tag: kind:arg1,arg2.
type Rule struct {
	Kind string
	Args []string
	Raw  string
}

// ParseRules splits a tag such as "mandatory;maxLength:40;pattern:^[a-z]+$"
// into rules. Rules are separated by ';', the kind from its arguments by the
// first ':' and arguments by ','.
func ParseRules(tag string) ([]Rule, error) {
	var rules []Rule
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kind, raw, _ := strings.Cut(part, ":")
		kind = strings.TrimSpace(kind)
		if kind == "" {
			return nil, bverror.New("constraint rule without kind").
				WithCode(bverror.CodeInvalidConstraint).
				WithOperation("constraints.ParseRules").
				WithDetail("rule", part)
		}

		rule := Rule{Kind: kind, Raw: strings.TrimSpace(raw)}
		if rule.Raw != "" {
			for _, arg := range strings.Split(rule.Raw, ",") {
				rule.Args = append(rule.Args, strings.TrimSpace(arg))
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
