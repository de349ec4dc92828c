// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"notation3/internal/deref"
	"notation3/internal/parser"
	"notation3/internal/reason"
	"notation3/internal/term"
	"notation3/internal/writer"
)

var (
	flagDeterministicSkolem bool
	flagEnforceHTTPS        bool
	flagProofComments       bool
	flagDerivations         bool
	flagSuperRestricted     bool
	flagNow                 string
	flagMaxLevel            int
	flagQuiet               bool
	flagVerbose             int
)

func main() {
	root := &cobra.Command{
		Use:   "n3 [flags] FILE...",
		Short: "Notation3 reasoner",
		Long: "Reads N3 documents, saturates them by forward and backward chaining,\n" +
			"and prints the derived closure.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().BoolVar(&flagDeterministicSkolem, "deterministic-skolem", false,
		"mint the same skolem IRIs across runs for identical input")
	root.Flags().BoolVar(&flagEnforceHTTPS, "enforce-https", false,
		"refuse to dereference plain http IRIs")
	root.Flags().BoolVar(&flagProofComments, "proof-comments", false,
		"emit derivation explanations as comments")
	root.Flags().BoolVar(&flagDerivations, "derivations", false,
		"print the derivation records after the closure")
	root.Flags().BoolVar(&flagSuperRestricted, "super-restricted", false,
		"disable all builtins except log:implies and log:impliedBy")
	root.Flags().StringVar(&flagNow, "now", "",
		"fix time:localTime to this xsd:dateTime lexical")
	root.Flags().IntVar(&flagMaxLevel, "max-level", 0,
		"cap the scoped-closure level (0 = no cap)")
	root.Flags().BoolVar(&flagQuiet, "quiet", false,
		"suppress the closure, keep log:outputString text")
	root.Flags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity")

	if err := root.Execute(); err != nil {
		var fuse *reason.FuseError
		if asFuse(err, &fuse) {
			// Diagnostic already printed; the fuse mandates exit code 2.
			os.Exit(2)
		}
		color.Red("%s", err)
		os.Exit(1)
	}
}

func asFuse(err error, target **reason.FuseError) bool {
	f, ok := err.(*reason.FuseError)
	if ok {
		*target = f
	}
	return ok
}

func run(cmd *cobra.Command, args []string) error {
	commonlog.Configure(flagVerbose, nil)

	var facts []*term.Triple
	var rules []*term.Rule
	prefixes := writer.DefaultPrefixes()
	for _, path := range args {
		doc, err := parser.ParseFile(path)
		if err != nil {
			reportParseError(path, err)
			return fmt.Errorf("parsing %s failed", path)
		}
		facts = append(facts, doc.Facts...)
		for _, r := range doc.Forward {
			rules = append(rules, r)
		}
		for _, r := range doc.Backward {
			rules = append(rules, r)
		}
		for p, ns := range doc.Prefixes {
			prefixes[p] = ns
		}
	}

	cfg := reason.Config{
		DeterministicSkolem: flagDeterministicSkolem,
		EnforceHTTPS:        flagEnforceHTTPS,
		ProofComments:       flagProofComments,
		SuperRestricted:     flagSuperRestricted,
		FixedNow:            flagNow,
		MaxLevel:            flagMaxLevel,
	}
	tracer := &stderrTracer{prefixes: prefixes}
	engine := reason.New(cfg, facts, rules, deref.NewClient(flagEnforceHTTPS), tracer)
	result, err := engine.Run()
	if err != nil {
		if fuse, ok := err.(*reason.FuseError); ok {
			w := writer.New(prefixes)
			fmt.Println("** inference fuse **")
			for _, t := range fuse.Premise {
				fmt.Println(w.Triple(t))
			}
		}
		return err
	}

	w := writer.New(prefixes)
	if !flagQuiet {
		fmt.Print(w.Document(result.Closure))
	}
	if flagProofComments || flagDerivations {
		for _, d := range result.Derived {
			fmt.Print(d.Explain(w))
		}
	}
	fmt.Print(result.Output)
	return nil
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(path string, err error) {
	se, ok := err.(*parser.SyntaxError)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}
	source, readErr := os.ReadFile(path)
	pos := se.Position()
	if readErr != nil || pos.Line <= 0 {
		color.Red("%s", se)
		return
	}
	lines := strings.Split(string(source), "\n")
	if pos.Line > len(lines) {
		color.Red("%s", se)
		return
	}
	line := lines[pos.Line-1]
	col := pos.Column
	if col < 1 {
		col = 1
	}
	caret := strings.Repeat(" ", col-1) + "^"
	color.Red("Syntax error in %s at line %d, column %d:", path, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", se.Message)
}

type stderrTracer struct {
	prefixes map[string]string
}

func (t *stderrTracer) WriteTraceLine(line string) {
	fmt.Fprintln(os.Stderr, line)
}

func (t *stderrTracer) TracePrefixes() map[string]string { return t.prefixes }

func (t *stderrTracer) SetTracePrefixes(prefixes map[string]string) { t.prefixes = prefixes }
