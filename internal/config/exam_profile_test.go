package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exam.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExamProfile_Defaults(t *testing.T) {
	cfg, err := LoadExamProfile("")
	if err != nil {
		t.Fatalf("LoadExamProfile: %v", err)
	}
	if cfg.TimeLimitSeconds != 1800 || cfg.TotalExpected != 50 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PerSubjectQuota["DEPARTMENTAL"] != 12 || cfg.PerSubjectQuota["MATHS"] != 13 {
		t.Fatalf("quota = %v", cfg.PerSubjectQuota)
	}
	if cfg.ResolveDepartment("GENERAL_ALL") != "GENERAL" {
		t.Fatal("sentinel not resolved")
	}
}

func TestLoadExamProfile_File(t *testing.T) {
	path := writeProfile(t, `
fixed_subjects: [maths, english]
per_subject_quota:
  MATHS: 20
  ENGLISH: 20
  DEPARTMENTAL: 10
total_expected: 50
time_limit_seconds: 2400
`)
	cfg, err := LoadExamProfile(path)
	if err != nil {
		t.Fatalf("LoadExamProfile: %v", err)
	}
	if len(cfg.FixedSubjects) != 2 || cfg.FixedSubjects[0] != "MATHS" {
		t.Fatalf("fixed = %v", cfg.FixedSubjects)
	}
	if cfg.PerSubjectQuota["MATHS"] != 20 || cfg.PerSubjectQuota["DEPARTMENTAL"] != 10 {
		t.Fatalf("quota = %v", cfg.PerSubjectQuota)
	}
	if cfg.TimeLimitSeconds != 2400 {
		t.Fatalf("time limit = %d", cfg.TimeLimitSeconds)
	}
}

func TestLoadExamProfile_EnvOverride(t *testing.T) {
	t.Setenv("EXAM_TIME_LIMIT_SECONDS", "600")
	t.Setenv("EXAM_TOTAL_EXPECTED", "40")

	cfg, err := LoadExamProfile("")
	if err != nil {
		t.Fatalf("LoadExamProfile: %v", err)
	}
	if cfg.TimeLimitSeconds != 600 || cfg.TotalExpected != 40 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadExamProfile_Invalid(t *testing.T) {
	tests := map[string]string{
		"zero time limit": "time_limit_seconds: 0\n",
		"negative quota":  "per_subject_quota:\n  MATHS: -1\n",
		"negative total":  "total_expected: -5\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadExamProfile(writeProfile(t, body))
			if !errors.Is(err, ErrInvalidExamProfile) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestLoadExamProfile_MissingExplicitFile(t *testing.T) {
	if _, err := LoadExamProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing explicit profile accepted")
	}
}

func TestParseOrigins(t *testing.T) {
	got := parseOrigins(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("origins = %v", got)
	}
	if parseOrigins("") != nil {
		t.Fatal("empty input should allow all")
	}
}
