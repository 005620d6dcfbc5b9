// Command cbt runs a timed practice exam in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/logger"
	"github.com/stemsi/exstem-cbt/internal/report"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/store"
	"golang.org/x/term"
)

func main() {
	candidate := flag.String("candidate", "", "Candidate id to reuse a stored profile (default: a new local-user id)")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	logLevel := flag.String("log-level", "warn", "Log level for diagnostics on stderr")
	flag.Parse()

	cfg := config.Load()
	logFormat := cfg.LogFormat
	if logFormat == "pretty" && !term.IsTerminal(int(os.Stderr.Fd())) {
		logFormat = "plain"
	}
	log := logger.SetupTo(os.Stderr, *logLevel, logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var qb *bank.Bank
	var err error
	if cfg.QuestionBankPath == "" {
		qb, err = bank.Default()
	} else {
		qb, err = bank.LoadFile(cfg.QuestionBankPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading question bank: %v\n", err)
		os.Exit(1)
	}

	examCfg, err := config.LoadExamProfile(cfg.ExamProfilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading exam profile: %v\n", err)
		os.Exit(1)
	}

	backend, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("result store unavailable, keeping results in memory")
		m := store.NewMemoryStore()
		backend, closeStore = &store.Backend{Driver: config.StoreMemory, Results: m, Profiles: m}, func() {}
	}
	defer closeStore()

	svc := service.NewExamService(qb, examCfg, backend.Results, backend.Profiles, log,
		service.WithPersistTimeout(cfg.PersistTimeout))
	defer svc.Shutdown()

	candidateID := *candidate
	if candidateID == "" {
		candidateID = localCandidateID()
	}

	colour := !*noColor && term.IsTerminal(int(os.Stdout.Fd()))
	r := newRunner(svc, report.NewRenderer(colour), os.Stdin, os.Stdout, candidateID)

	done := make(chan error, 1)
	go func() {
		_, err := r.run(ctx)
		done <- err
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nInterrupted. The exam was not submitted.")
		os.Exit(130)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if backend.Driver != config.StoreMemory {
		fmt.Printf("\nCandidate id: %s\n", candidateID)
	}
}

// localCandidateID names a candidate that has no account.
func localCandidateID() string {
	return "local-user-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
