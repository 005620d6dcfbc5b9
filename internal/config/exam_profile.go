package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/stemsi/exstem-cbt/internal/model"
)

var ErrInvalidExamProfile = errors.New("invalid exam profile")

// LoadExamProfile reads the exam layout from a YAML file and EXAM_* environment variables.
//
// An empty path searches ./config/exam.yaml. A missing file is not an error;
// the built-in layout is used instead.
func LoadExamProfile(path string) (model.ExamConfiguration, error) {
	def := model.DefaultExamConfiguration()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("exam")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	v.SetDefault("fixed_subjects", def.FixedSubjects)
	v.SetDefault("per_subject_quota", def.PerSubjectQuota)
	v.SetDefault("departmental_quota_key", def.DepartmentalQuotaKey)
	v.SetDefault("all_subjects_sentinel", def.AllSubjectsSentinel)
	v.SetDefault("catch_all_subject", def.CatchAllSubject)
	v.SetDefault("total_expected", def.TotalExpected)
	v.SetDefault("time_limit_seconds", def.TimeLimitSeconds)

	v.SetEnvPrefix("EXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return model.ExamConfiguration{}, fmt.Errorf("read exam profile: %w", err)
		}
	}

	var cfg model.ExamConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return model.ExamConfiguration{}, fmt.Errorf("unmarshal exam profile: %w", err)
	}

	normalize(&cfg)
	if err := validateProfile(cfg); err != nil {
		return model.ExamConfiguration{}, err
	}
	return cfg, nil
}

// normalize upper-cases subject tags. Viper lower-cases map keys, and
// subject tags in the bank are upper-case.
func normalize(cfg *model.ExamConfiguration) {
	quota := make(map[string]int, len(cfg.PerSubjectQuota))
	for k, n := range cfg.PerSubjectQuota {
		quota[strings.ToUpper(k)] = n
	}
	cfg.PerSubjectQuota = quota

	for i, s := range cfg.FixedSubjects {
		cfg.FixedSubjects[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	cfg.DepartmentalQuotaKey = strings.ToUpper(cfg.DepartmentalQuotaKey)
	cfg.AllSubjectsSentinel = strings.ToUpper(cfg.AllSubjectsSentinel)
	cfg.CatchAllSubject = strings.ToUpper(cfg.CatchAllSubject)
}

func validateProfile(cfg model.ExamConfiguration) error {
	if cfg.TimeLimitSeconds <= 0 {
		return fmt.Errorf("%w: time_limit_seconds must be positive", ErrInvalidExamProfile)
	}
	if cfg.TotalExpected < 0 {
		return fmt.Errorf("%w: total_expected must not be negative", ErrInvalidExamProfile)
	}
	for subject, n := range cfg.PerSubjectQuota {
		if n < 0 {
			return fmt.Errorf("%w: quota for %s is negative", ErrInvalidExamProfile, subject)
		}
	}
	if cfg.AllSubjectsSentinel != "" && cfg.CatchAllSubject == "" {
		return fmt.Errorf("%w: all_subjects_sentinel needs a catch_all_subject", ErrInvalidExamProfile)
	}
	return nil
}
