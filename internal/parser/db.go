package parser

import (
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MariaDBLineProvider reads raw ACL lines from an acl_line table instead of
// a text file, for setups where device configs are already mirrored into a
// database. Lines come back in stored order; the first one is still expected
// to be the ACL header.
type MariaDBLineProvider struct {
	db     *sql.DB
	device string
}

func NewMariaDBLineProvider(dsn, device string) (*MariaDBLineProvider, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &MariaDBLineProvider{db: db, device: device}, nil
}

func (p *MariaDBLineProvider) Close() {
	p.db.Close()
}

// Lines returns the ACL text ordered by line number. When a device name is
// set the query is restricted to that device.
func (p *MariaDBLineProvider) Lines() ([]string, error) {
	query := "SELECT line_text FROM acl_line"
	var args []any
	if p.device != "" {
		query += " WHERE device_name = ?"
		args = append(args, p.device)
	}
	query += " ORDER BY line_no ASC"

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
