package main

import (
	"fmt"
	"os"
	"strings"

	"acl-csv-exporter/internal/model"
	"acl-csv-exporter/internal/parser"
	"acl-csv-exporter/pkg/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Initialize colored output
var (
	permitPrint = color.New(color.FgGreen).PrintfFunc()
	denyPrint   = color.New(color.FgRed).PrintfFunc()
	remarkPrint = color.New(color.FgYellow).PrintfFunc()
)

func newPrintCmd() *cobra.Command {
	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print parsed ACL rules to the terminal",
		Long: `Parse a single ACL file and display the recovered fields per rule,
	color-coded by action, without writing a CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			aclFile, _ := cmd.Flags().GetString("acl")
			servicesPath, _ := cmd.Flags().GetString("services")
			if aclFile == "" {
				return fmt.Errorf("--acl is required")
			}

			table := services.Default()
			if servicesPath != "" {
				f, err := os.Open(servicesPath)
				if err != nil {
					return err
				}
				defer f.Close()
				table, err = services.LoadIANA(f, ',', services.SkipMalformed)
				if err != nil {
					return err
				}
			}

			f, err := os.Open(aclFile)
			if err != nil {
				return err
			}
			defer f.Close()
			lines, err := parser.ReadLines(f)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("%s: empty ACL", aclFile)
			}

			rules, errs := parser.ParseACL(lines, table)
			fmt.Printf("ACL %s (%d rules)\n", parser.HeaderName(lines[0]), len(rules))
			for i := range rules {
				printRule(&rules[i])
			}
			for _, e := range errs {
				denyPrint("   ! %v\n", e)
			}
			return nil
		},
	}

	printCmd.Flags().String("acl", "", "ACL text file to print")
	printCmd.Flags().String("services", "", "IANA service names CSV (default: embedded registry)")

	return printCmd
}

func printRule(r *model.ParsedRule) {
	if r.Action == model.ActionRemark {
		remarkPrint("%4s remark %s\n", r.SeqNumber, r.ACLRemark)
		return
	}
	out := func(format string, a ...interface{}) { fmt.Printf(format, a...) }
	switch r.Action {
	case model.ActionPermit:
		out = permitPrint
	case model.ActionDeny:
		out = denyPrint
	}
	out("%4s %s %s %s -> %s%s\n", r.SeqNumber, r.Action, r.Proto,
		formatEndpoint(r.SrcType, r.SrcIP, r.SrcOperator, r.SrcPortBegin, r.SrcPortEnd),
		formatEndpoint(r.DstType, r.DstIP, r.DstOperator, r.DstPortBegin, r.DstPortEnd),
		formatState(r.State))
}

func formatEndpoint(typ, ip, op, begin, end string) string {
	var b strings.Builder
	if typ == model.EndpointHost {
		b.WriteString("host ")
	}
	if ip == "" {
		b.WriteString("?")
	} else {
		b.WriteString(ip)
	}
	if op != "" {
		b.WriteString(" " + op + " " + begin)
		if end != "" {
			b.WriteString("-" + end)
		}
	}
	return b.String()
}

func formatState(state string) string {
	if state == "" {
		return ""
	}
	return " [" + state + "]"
}
