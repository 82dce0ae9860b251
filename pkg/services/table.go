package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	_ "embed"
)

//go:embed iana_services.csv
var defaultServicesData string

var (
	// ErrUnknownService means the name is absent from the table entirely.
	ErrUnknownService = errors.New("unknown service name")
	// ErrProtocolMismatch means the name exists but has no entry for the
	// protocol the rule named.
	ErrProtocolMismatch = errors.New("no entry for protocol")
	// ErrMalformedRow means a source row lacks a name or port.
	ErrMalformedRow = errors.New("malformed service row")
)

// MalformedRowPolicy decides what Build does with a row that lacks a name or
// port: drop it or fail the whole build.
type MalformedRowPolicy int

const (
	SkipMalformed MalformedRowPolicy = iota
	AbortOnMalformed
)

// Row is one source triple for Build.
type Row struct {
	Name     string
	Protocol string
	Port     string
}

// Entry is one protocol-qualified port recorded for a service name.
type Entry struct {
	Protocol string
	Port     string
}

// Table maps a service name to its (protocol, port) entries. One name can
// map to several protocols. Immutable after Build, so a single table may be
// read concurrently by independent ACL parses.
type Table struct {
	entries map[string][]Entry
}

func Build(rows []Row, policy MalformedRowPolicy) (*Table, error) {
	entries := make(map[string][]Entry, len(rows))
	for i, row := range rows {
		if row.Name == "" || row.Port == "" {
			if policy == AbortOnMalformed {
				return nil, fmt.Errorf("row %d: %w", i, ErrMalformedRow)
			}
			continue
		}
		entries[row.Name] = append(entries[row.Name], Entry{Protocol: row.Protocol, Port: row.Port})
	}
	return &Table{entries: entries}, nil
}

// Resolve returns the numeric port string for a service name under the
// protocol already known from the rule. The literal token "netbios-ss" is an
// alias for "netbios-ssn"; the vendor's own naming is inconsistent there.
func (t *Table) Resolve(name, protocol string) (string, error) {
	if name == "netbios-ss" {
		name = "netbios-ssn"
	}
	candidates, ok := t.entries[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownService)
	}
	for _, entry := range candidates {
		if entry.Protocol == protocol {
			return entry.Port, nil
		}
	}
	return "", fmt.Errorf("%q/%s: %w", name, protocol, ErrProtocolMismatch)
}

// Len returns the number of distinct service names.
func (t *Table) Len() int {
	return len(t.entries)
}

// LoadIANA builds a table from a delimited IANA service-names export
// (https://www.iana.org/assignments/service-names-port-numbers). Columns are
// located by header name, so extra columns and any column order are fine.
// Rows missing a service name or port number are dropped before Build; the
// registry contains many unassigned placeholder rows.
func LoadIANA(r io.Reader, delimiter rune, policy MalformedRowPolicy) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}
	nameCol, protoCol, portCol := -1, -1, -1
	for i, col := range header {
		switch {
		case strings.EqualFold(col, "Service Name"):
			nameCol = i
		case strings.EqualFold(col, "Transport Protocol"):
			protoCol = i
		case strings.EqualFold(col, "Port Number"):
			portCol = i
		}
	}
	if nameCol == -1 || protoCol == -1 || portCol == -1 {
		return nil, fmt.Errorf("could not find 'Service Name', 'Transport Protocol' and 'Port Number' columns")
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if nameCol >= len(record) || protoCol >= len(record) || portCol >= len(record) {
			continue
		}
		if record[nameCol] == "" || record[portCol] == "" {
			continue
		}
		rows = append(rows, Row{
			Name:     record[nameCol],
			Protocol: record[protoCol],
			Port:     record[portCol],
		})
	}
	return Build(rows, policy)
}

var defaultTable *Table

func init() {
	t, err := LoadIANA(strings.NewReader(defaultServicesData), ',', SkipMalformed)
	if err != nil {
		log.Fatalf("Failed to parse embedded iana_services.csv: %v", err)
	}
	defaultTable = t
}

// Default returns the table built from the embedded registry of common
// services. It covers the names that show up in typical campus ACLs; load a
// full IANA export for anything exotic.
func Default() *Table {
	return defaultTable
}
