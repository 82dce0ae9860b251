package parser

import (
	"fmt"
	"strings"

	"acl-csv-exporter/internal/model"
	"acl-csv-exporter/pkg/services"
)

// RuleParser turns one rule's tokens into a ParsedRule. There is no separate
// lexer phase: classification and extraction happen together, driven by
// token content and relative position. Ambiguous shapes degrade to empty
// fields; only service-name resolution failures are reported as errors.
type RuleParser struct {
	table *services.Table
}

func NewRuleParser(table *services.Table) *RuleParser {
	return &RuleParser{table: table}
}

// Parse consumes one rule and the ACL's carried context. A remark rule
// updates ctx.Remark; every other rule reads it. On a resolution error the
// partially parsed rule is returned alongside the error so the caller can
// report its sequence number.
func (p *RuleParser) Parse(tokens []string, ctx *model.ParserContext) (model.ParsedRule, error) {
	cur := NewCursor(tokens)
	rule := model.ParsedRule{
		ACLName:   ctx.ACLName,
		SeqNumber: cur.At(0),
		Action:    cur.At(1),
		SrcType:   model.EndpointNetwork,
		DstType:   model.EndpointNetwork,
	}

	if rule.Action == model.ActionRemark {
		ctx.Remark = ""
		if len(tokens) > 2 {
			ctx.Remark = strings.TrimSpace(strings.Join(tokens[2:], " "))
		}
		rule.ACLRemark = ctx.Remark
		rule.SrcType, rule.DstType = "", ""
		return rule, nil
	}

	rule.ACLRemark = ctx.Remark
	rule.Proto = cur.At(2)

	if cur.At(3) == model.EndpointHost {
		rule.SrcIP = cur.At(4)
		rule.SrcType = model.EndpointHost
	} else {
		rule.SrcIP = cur.At(3)
	}

	if rule.Proto != string(model.TCP) && rule.Proto != string(model.UDP) {
		// Only transport-layer rules carry operator/port clauses. For any
		// other protocol the token after the source address is the
		// destination and parsing ends.
		rule.DstIP = cur.ValueAt(rule.SrcIP, 1, First)
		return rule, nil
	}

	next := cur.ValueAt(rule.SrcIP, 1, First)
	switch {
	case looksNumeric(next):
		// A token containing a digit right after the source address is the
		// destination; the rule has no source port clause.
		rule.DstIP = next
	case isOperator(next):
		rule.SrcOperator = next
		rule.SrcPortBegin = cur.ValueAt(rule.SrcOperator, 1, First)

		if rule.SrcOperator == model.OpRange &&
			isInteger(cur.ValueAt(rule.SrcOperator, 1, First)) &&
			isInteger(cur.ValueAt(rule.SrcOperator, 2, First)) {
			rule.SrcPortEnd = cur.ValueAt(rule.SrcOperator, 2, First)
			if cur.ValueAt(rule.SrcOperator, 3, First) == model.EndpointHost {
				rule.DstIP = cur.ValueAt(rule.SrcOperator, 4, First)
				rule.DstType = model.EndpointHost
			} else {
				rule.DstIP = cur.ValueAt(rule.SrcOperator, 3, First)
			}
		} else {
			// eq, gt, lt, or a range with only a starting port.
			two := cur.ValueAt(rule.SrcOperator, 2, First)
			switch {
			case two == model.EndpointHost:
				rule.DstIP = cur.ValueAt(rule.SrcOperator, 3, First)
				rule.DstType = model.EndpointHost
			case looksAddress(two):
				// A dotted token means any single-bound range ended early.
				rule.DstIP = two
			case two == "any" && !looksAddress(cur.ValueAt(rule.SrcOperator, 3, First)):
				rule.DstIP = "any"
			}
			// Otherwise the destination stays unresolved.
		}
	case next == model.EndpointHost:
		// No source port clause, destination host qualifier. Scan from the
		// right so a "host" on the source side is never re-matched.
		rule.DstType = model.EndpointHost
		rule.DstIP = cur.ValueAt(model.EndpointHost, -1, Last)
	default:
		// Neither digit nor keyword: the token is the destination itself,
		// typically "any".
		rule.DstIP = next
	}

	if rule.DstIP != "" {
		if after := cur.ValueAt(rule.DstIP, 1, First); isOperator(after) {
			rule.DstOperator = after
			// Anchor on the last occurrence: if "range" was already used for
			// the source ports, scanning from the left would re-match it.
			rule.DstPortBegin = cur.ValueAt(rule.DstOperator, -1, Last)
			if rule.DstOperator == model.OpRange &&
				isInteger(cur.ValueAt(rule.DstOperator, -1, Last)) &&
				isInteger(cur.ValueAt(rule.DstOperator, -2, Last)) {
				rule.DstPortEnd = cur.ValueAt(rule.DstOperator, -2, Last)
			}
		}
	}

	if cur.LastNonEmpty() == model.StateEstablished {
		rule.State = model.StateEstablished
	}

	if err := p.resolvePorts(&rule); err != nil {
		return rule, err
	}
	return rule, nil
}

// resolvePorts replaces symbolic service names in the four port fields with
// numeric ports for the rule's protocol. Fields without an alphabetic
// character are assumed numeric and passed through.
func (p *RuleParser) resolvePorts(rule *model.ParsedRule) error {
	fields := []struct {
		name string
		val  *string
	}{
		{"src_port_begin", &rule.SrcPortBegin},
		{"src_port_end", &rule.SrcPortEnd},
		{"dst_port_begin", &rule.DstPortBegin},
		{"dst_port_end", &rule.DstPortEnd},
	}
	for _, f := range fields {
		if *f.val == "" || !looksSymbolic(*f.val) {
			continue
		}
		port, err := p.table.Resolve(*f.val, rule.Proto)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = port
	}
	return nil
}

// looksNumeric reports whether the token contains at least one digit, the
// test that separates an address or port from an operator keyword.
func looksNumeric(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

// looksAddress reports whether the token contains a literal dot, i.e. is
// shaped like a dotted address rather than a port or keyword.
func looksAddress(s string) bool {
	return strings.Contains(s, ".")
}

// isInteger reports whether the token is purely numeric, the validity test
// for range bounds.
func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// looksSymbolic reports whether the token contains a letter and therefore
// needs service-name resolution.
func looksSymbolic(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}

func isOperator(s string) bool {
	switch s {
	case model.OpEq, model.OpGt, model.OpLt, model.OpRange:
		return true
	}
	return false
}
