package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"acl-csv-exporter/internal/model"
	"acl-csv-exporter/pkg/services"
)

// ReadLines reads an ACL text into trimmed, non-empty lines.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// HeaderName extracts the ACL name from the header line, e.g.
// "ip access-list extended TESTACL": everything from the fourth token on,
// joined by single spaces.
func HeaderName(header string) string {
	fields := strings.Fields(header)
	if len(fields) <= 3 {
		return ""
	}
	return strings.Join(fields[3:], " ")
}

// RuleError reports a rule whose service-name resolution failed. Line is
// 1-based within the ACL text; the header is line 1.
type RuleError struct {
	Line int
	Seq  string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s (line %d): %v", e.Seq, e.Line, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// ParseACL parses a whole ACL. The first line must be the header; it fixes
// the ACL name before any rule is parsed. Rules are parsed strictly in input
// order because the remark context is sequential. Rules that fail service
// resolution are reported in errs and omitted from the result; the caller
// decides whether that aborts the run.
func ParseACL(lines []string, table *services.Table) ([]model.ParsedRule, []*RuleError) {
	if len(lines) == 0 {
		return nil, nil
	}
	ctx := &model.ParserContext{ACLName: HeaderName(lines[0])}
	p := NewRuleParser(table)

	var rules []model.ParsedRule
	var errs []*RuleError
	for i, line := range lines[1:] {
		rule, err := p.Parse(strings.Fields(line), ctx)
		if err != nil {
			errs = append(errs, &RuleError{Line: i + 2, Seq: rule.SeqNumber, Err: err})
			continue
		}
		rules = append(rules, rule)
	}
	return rules, errs
}
