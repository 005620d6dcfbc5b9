package model

// Defaults mirroring the CDCFIB practice exam.
const (
	DefaultDepartmentalQuotaKey = "DEPARTMENTAL"
	DefaultAllSubjectsSentinel  = "GENERAL_ALL"
	DefaultCatchAllSubject      = "GENERAL"
	DefaultTimeLimitSeconds     = 30 * 60
	DefaultTotalExpected        = 50
)

// ExamConfiguration is the input to exam construction.
type ExamConfiguration struct {
	// FixedSubjects are drawn into every exam, in this order.
	FixedSubjects []string `json:"fixed_subjects" mapstructure:"fixed_subjects"`
	// PerSubjectQuota maps a subject tag (or DepartmentalQuotaKey) to a draw count.
	PerSubjectQuota map[string]int `json:"per_subject_quota" mapstructure:"per_subject_quota"`
	// DepartmentalQuotaKey is the PerSubjectQuota key used for the department draw.
	DepartmentalQuotaKey string `json:"departmental_quota_key" mapstructure:"departmental_quota_key"`
	// AllSubjectsSentinel is the department choice that means "no specific department".
	AllSubjectsSentinel string `json:"all_subjects_sentinel" mapstructure:"all_subjects_sentinel"`
	// CatchAllSubject is what AllSubjectsSentinel resolves to.
	CatchAllSubject  string `json:"catch_all_subject" mapstructure:"catch_all_subject"`
	TotalExpected    int    `json:"total_expected" mapstructure:"total_expected"`
	TimeLimitSeconds int    `json:"time_limit_seconds" mapstructure:"time_limit_seconds"`
}

// DefaultExamConfiguration returns the 13/13/12 + 12 departmental, 30 minute layout.
func DefaultExamConfiguration() ExamConfiguration {
	return ExamConfiguration{
		FixedSubjects: []string{"MATHS", "ENGLISH", "GENERAL"},
		PerSubjectQuota: map[string]int{
			"MATHS":                     13,
			"ENGLISH":                   13,
			"GENERAL":                   12,
			DefaultDepartmentalQuotaKey: 12,
		},
		DepartmentalQuotaKey: DefaultDepartmentalQuotaKey,
		AllSubjectsSentinel:  DefaultAllSubjectsSentinel,
		CatchAllSubject:      DefaultCatchAllSubject,
		TotalExpected:        DefaultTotalExpected,
		TimeLimitSeconds:     DefaultTimeLimitSeconds,
	}
}

// QuotaSum returns the sum of every configured quota.
func (c ExamConfiguration) QuotaSum() int {
	sum := 0
	for _, n := range c.PerSubjectQuota {
		sum += n
	}
	return sum
}

// IsFixed reports whether subject is one of the fixed subjects.
func (c ExamConfiguration) IsFixed(subject string) bool {
	for _, s := range c.FixedSubjects {
		if s == subject {
			return true
		}
	}
	return false
}

// ResolveDepartment maps the all-subjects sentinel to the catch-all subject.
func (c ExamConfiguration) ResolveDepartment(choice string) string {
	if c.AllSubjectsSentinel != "" && choice == c.AllSubjectsSentinel {
		return c.CatchAllSubject
	}
	return choice
}

// Department is one selectable departmental subject with its pool size.
type Department struct {
	Subject  string `json:"subject"`
	Display  string `json:"display"`
	PoolSize int    `json:"pool_size"`
}
