// Command bankcheck validates a question bank and shows, per department,
// whether the exam profile can be filled from it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/report"
)

func main() {
	input := flag.String("input", "", "Path to a question bank JSON file (default: embedded bank)")
	profile := flag.String("profile", "", "Path to an exam profile YAML file (default: ./config/exam.yaml or built-in)")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	b, err := load(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadExamProfile(*profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading exam profile: %v\n", err)
		os.Exit(1)
	}

	title := b.Title()
	if title == "" {
		title = "Question bank"
	}
	fmt.Printf("%s: %d questions\n\n", title, b.Len())

	sizes := b.PoolSizes()
	for _, s := range b.Subjects() {
		fmt.Printf("  %-28s %4d\n", report.DisplayName(s), sizes[s])
	}
	fmt.Println()

	ok := color.New(color.FgGreen).SprintFunc()
	short := color.New(color.FgYellow).SprintFunc()

	sel := exam.NewSelector(b)
	underfilled := 0
	for _, dept := range departments(b, cfg.FixedSubjects, cfg.AllSubjectsSentinel) {
		sess, err := sel.Build(cfg, dept)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building %s: %v\n", dept, err)
			os.Exit(1)
		}
		if !sess.Underfilled() && sess.Len() == cfg.TotalExpected {
			fmt.Printf("  %-28s %s %d/%d\n", report.DisplayName(dept), ok("OK   "), sess.Len(), cfg.TotalExpected)
			continue
		}
		underfilled++
		fmt.Printf("  %-28s %s %d/%d\n", report.DisplayName(dept), short("SHORT"), sess.Len(), cfg.TotalExpected)
		for _, sf := range sess.Shortfalls() {
			fmt.Printf("      %s: wanted %d, pool has %d\n", sf.Subject, sf.Requested, sf.Available)
		}
	}

	if underfilled > 0 {
		fmt.Printf("\n%d department(s) produce a short exam\n", underfilled)
	}
}

func load(path string) (*bank.Bank, error) {
	if path == "" {
		return bank.Default()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot read input file: %w", err)
	}
	return bank.LoadFile(path)
}

// departments lists every department choice a candidate could make.
func departments(b *bank.Bank, fixed []string, sentinel string) []string {
	isFixed := make(map[string]bool, len(fixed))
	for _, s := range fixed {
		isFixed[s] = true
	}
	var out []string
	for _, s := range b.Subjects() {
		if !isFixed[s] {
			out = append(out, s)
		}
	}
	if sentinel != "" {
		out = append(out, sentinel)
	}
	return out
}
