package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"acl-csv-exporter/internal/config"
	"acl-csv-exporter/internal/model"
)

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd == nil {
		t.Fatal("newRootCmd returned nil")
	}
	if cmd.Use != "aclexport" {
		t.Errorf("Expected use 'aclexport', got '%s'", cmd.Use)
	}
}

func TestSetupLogger(t *testing.T) {
	levels := []string{"DEBUG", "INFO", "WARN", "ERROR", "UNKNOWN"}
	for _, lvl := range levels {
		l := setupLogger(lvl, "")
		if l == nil {
			t.Errorf("setupLogger returned nil for level %s", lvl)
		}
	}

	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")
	if l := setupLogger("INFO", logFile); l == nil {
		t.Error("setupLogger with file returned nil")
	}

	// Test invalid log file path
	if l := setupLogger("INFO", "/nonexistent/path/to/log.log"); l == nil {
		t.Error("setupLogger should return a logger even if file fails")
	}
}

func TestLoadSources(t *testing.T) {
	// Unknown provider
	if _, err := loadSources("unknown", nil, "", ""); err == nil {
		t.Error("Expected error for unknown provider")
	}

	// File provider without files
	if _, err := loadSources("file", nil, "", ""); err == nil {
		t.Error("Expected error for missing --acl files")
	}
	if _, err := loadSources("file", []string{"/nonexistent/acl.txt"}, "", ""); err == nil {
		t.Error("Expected error for nonexistent ACL file")
	}

	// MariaDB provider without DSN
	if _, err := loadSources("mariadb", nil, "", ""); err == nil {
		t.Error("Expected error for missing DSN")
	}
	if _, err := loadSources("mariadb", nil, "invalid-dsn", ""); err == nil {
		t.Error("Expected error for invalid DSN")
	}
}

func TestLoadTable(t *testing.T) {
	cfg := config.Default()

	// Embedded default
	table, err := loadTable(cfg, "")
	if err != nil || table == nil {
		t.Fatalf("expected embedded table, got %v", err)
	}

	// Explicit file
	path := filepath.Join(t.TempDir(), "services.csv")
	os.WriteFile(path, []byte("Service Name,Port Number,Transport Protocol\nssh,22,tcp\n"), 0644)
	table, err = loadTable(cfg, path)
	if err != nil {
		t.Fatalf("expected table from file, got %v", err)
	}
	if port, err := table.Resolve("ssh", "tcp"); err != nil || port != "22" {
		t.Errorf("Resolve(ssh, tcp) = %q, %v", port, err)
	}

	// Missing file
	if _, err := loadTable(cfg, "/nonexistent/services.csv"); err == nil {
		t.Error("Expected error for missing services file")
	}
}

func TestRun(t *testing.T) {
	tmpDir := t.TempDir()

	aclFile := filepath.Join(tmpDir, "acl.txt")
	outFile := filepath.Join(tmpDir, "out.csv")

	acl := "ip access-list extended TESTACL\n" +
		"10 permit tcp host 10.1.1.1 eq https any\n" +
		"30 remark allow web traffic\n" +
		"40 permit tcp any any eq www established\n"
	if err := os.WriteFile(aclFile, []byte(acl), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--acl", aclFile,
		"--out", outFile,
		"--log-level", "DEBUG",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	f, err := os.Open(outFile)
	if err != nil {
		t.Fatalf("output file was not created: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read output CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rules, got %d records", len(records))
	}
	header := records[0]
	if header[0] != "acl_name" || header[len(header)-1] != "acl_state" {
		t.Errorf("unexpected header: %v", header)
	}

	byID := make(map[string][]string)
	for _, rec := range records[1:] {
		byID[rec[2]] = rec
	}
	rule10 := byID["10"]
	if rule10 == nil {
		t.Fatal("rule 10 missing from output")
	}
	if rule10[0] != "TESTACL" || rule10[8] != "443" {
		t.Errorf("rule 10: expected TESTACL with resolved port 443, got %v", rule10)
	}
	rule40 := byID["40"]
	if rule40 == nil {
		t.Fatal("rule 40 missing from output")
	}
	if rule40[1] != "allow web traffic" || rule40[15] != "established" {
		t.Errorf("rule 40: expected sticky remark and established state, got %v", rule40)
	}
}

func TestRunResolveErrorPolicies(t *testing.T) {
	tmpDir := t.TempDir()

	aclFile := filepath.Join(tmpDir, "acl.txt")
	acl := "ip access-list extended TESTACL\n" +
		"10 permit tcp any eq no-such-svc any\n" +
		"20 deny ip any any\n"
	if err := os.WriteFile(aclFile, []byte(acl), 0644); err != nil {
		t.Fatal(err)
	}

	// Default policy aborts.
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--acl", aclFile,
		"--out", filepath.Join(tmpDir, "abort.csv"),
	})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for unresolvable service under abort policy")
	}

	// Skip policy drops the bad rule and keeps going.
	cfgFile := filepath.Join(tmpDir, "config.yaml")
	os.WriteFile(cfgFile, []byte("on_resolve_error: skip\n"), 0644)
	outFile := filepath.Join(tmpDir, "skip.csv")

	cmd = newRootCmd()
	cmd.SetArgs([]string{
		"--acl", aclFile,
		"--out", outFile,
		"--config", cfgFile,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed under skip policy: %v", err)
	}

	f, err := os.Open(outFile)
	if err != nil {
		t.Fatalf("output file was not created: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("expected header + 1 surviving rule, got %d records", len(records))
	}
}

func TestRunErrors(t *testing.T) {
	tmpDir := t.TempDir()

	// No input at all
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--out", filepath.Join(tmpDir, "out.csv")})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error when no ACL source is given")
	}

	// Invalid provider
	aclFile := filepath.Join(tmpDir, "acl.txt")
	os.WriteFile(aclFile, []byte("ip access-list extended A\n"), 0644)
	cmd = newRootCmd()
	cmd.SetArgs([]string{"--acl", aclFile, "--provider", "invalid"})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for invalid provider")
	}

	// Invalid config file
	cfgFile := filepath.Join(tmpDir, "config.yaml")
	os.WriteFile(cfgFile, []byte("on_resolve_error: explode\n"), 0644)
	cmd = newRootCmd()
	cmd.SetArgs([]string{"--acl", aclFile, "--config", cfgFile})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestPrintCmd(t *testing.T) {
	tmpDir := t.TempDir()
	aclFile := filepath.Join(tmpDir, "acl.txt")
	acl := "ip access-list extended TESTACL\n" +
		"10 remark lab rules\n" +
		"20 permit tcp host 10.1.1.1 eq https any\n" +
		"30 deny ip any any\n"
	if err := os.WriteFile(aclFile, []byte(acl), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"print", "--acl", aclFile})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	// Missing --acl
	cmd = newRootCmd()
	cmd.SetArgs([]string{"print"})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error when print is missing --acl")
	}
}

func TestFormatEndpoint(t *testing.T) {
	got := formatEndpoint(model.EndpointHost, "10.1.1.1", model.OpRange, "1000", "2000")
	if got != "host 10.1.1.1 range 1000-2000" {
		t.Errorf("unexpected endpoint format: %q", got)
	}
	if got := formatEndpoint(model.EndpointNetwork, "", "", "", ""); got != "?" {
		t.Errorf("expected placeholder for unresolved address, got %q", got)
	}
}
