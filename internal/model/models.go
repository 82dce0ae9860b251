package model

type Protocol string // "tcp", "udp"

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// Rule actions as they appear in the ACL text.
const (
	ActionPermit = "permit"
	ActionDeny   = "deny"
	ActionRemark = "remark"
)

// Endpoint types. A remark rule carries neither, represented by "".
const (
	EndpointHost    = "host"
	EndpointNetwork = "network"
)

// Port operators.
const (
	OpEq    = "eq"
	OpGt    = "gt"
	OpLt    = "lt"
	OpRange = "range"
)

// StateEstablished is the only recognized connection-state flag.
const StateEstablished = "established"

// ParserContext is the state carried across consecutive rule parses within
// one ACL. ACLName is fixed from the header line before any rule is parsed.
// Remark is sticky: a remark rule overwrites it, every later rule reads it.
type ParserContext struct {
	ACLName string
	Remark  string
}

// ParsedRule is one tabular record per ACL rule line. Fields are kept as
// strings in the form they are written to CSV; absence of a field is the
// empty string.
type ParsedRule struct {
	ACLName      string
	ACLRemark    string
	SeqNumber    string
	Action       string
	Proto        string
	SrcType      string
	SrcIP        string
	SrcOperator  string
	SrcPortBegin string
	SrcPortEnd   string
	DstType      string
	DstIP        string
	DstOperator  string
	DstPortBegin string
	DstPortEnd   string
	State        string
}

// CSVHeader returns the output header row. Record follows the same order.
func CSVHeader() []string {
	return []string{
		"acl_name", "acl_remark", "seq_number", "acl_action", "acl_proto",
		"src_type", "src_ip", "src_operator", "src_port_begin", "src_port_end",
		"dst_type", "dst_ip", "dst_operator", "dst_port_begin", "dst_port_end",
		"acl_state",
	}
}

func (r *ParsedRule) Record() []string {
	return []string{
		r.ACLName, r.ACLRemark, r.SeqNumber, r.Action, r.Proto,
		r.SrcType, r.SrcIP, r.SrcOperator, r.SrcPortBegin, r.SrcPortEnd,
		r.DstType, r.DstIP, r.DstOperator, r.DstPortBegin, r.DstPortEnd,
		r.State,
	}
}
