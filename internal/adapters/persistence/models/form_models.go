package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Form statuses
const (
	FormStatusPending    = "pending"
	FormStatusInProgress = "in_progress"
	FormStatusCompleted  = "completed"
)

// FormStep identifies a section of the multi-step form.
type FormStep int

const (
	StepStarted         FormStep = 0
	StepPersonalDetails FormStep = 1
	StepServiceDetails  FormStep = 2
)

// Gender choices
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Post choices
const (
	PostRevenueClerk    = "revenue_clerk"
	PostRevenueTalati   = "revenue_talati"
	PostDeputyMamlatdar = "deputy_mamlatdar"
)

// Exam types
const (
	ExamPreService = "pre_service"
	ExamCCC        = "ccc"
	ExamCCCPlus    = "ccc_plus"
	ExamLRQ        = "lrq"
	ExamHRQ        = "hrq"
)

// StepList is the set of completed step identifiers, stored as a JSON array.
type StepList []FormStep

// Value implements driver.Valuer
func (s StepList) Value() (driver.Value, error) {
	if s == nil {
		s = StepList{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *StepList) Scan(value interface{}) error {
	if value == nil {
		*s = StepList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StepList", value)
	}
}

// Contains reports whether the step is already recorded as completed.
func (s StepList) Contains(step FormStep) bool {
	for _, v := range s {
		if v == step {
			return true
		}
	}
	return false
}

// RootForm represents root_form table (the aggregate root)
type RootForm struct {
	AuditFields
	FormNumber    string     `gorm:"uniqueIndex;size:30;not null" json:"form_number"`
	Status        string     `gorm:"size:12;default:'pending'" json:"status"`
	CurrentStep   FormStep   `gorm:"not null;default:0" json:"current_step"`
	StepCompleted StepList   `gorm:"type:text" json:"step_completed"`
	UserID        *uint      `gorm:"index" json:"user_id"`
	CompletedAt   *time.Time `json:"completed_at"`

	// Relations
	User            *User            `gorm:"foreignKey:UserID" json:"-"`
	PersonalDetails *PersonalDetails `gorm:"foreignKey:RootFormID" json:"personal_details,omitempty"`
	ServiceDetails  *ServiceDetails  `gorm:"foreignKey:RootFormID" json:"service_details,omitempty"`
}

func (RootForm) TableName() string {
	return "root_form"
}

// PersonalDetails represents personal_details table (step 1, 1:1 with RootForm)
type PersonalDetails struct {
	AuditFields
	RootFormID      uint    `gorm:"uniqueIndex;not null" json:"root_form_id"`
	Email           string  `gorm:"size:100" json:"email"`
	FirstName       string  `gorm:"size:50" json:"first_name"`
	MiddleName      string  `gorm:"size:50" json:"middle_name"`
	LastName        string  `gorm:"size:50" json:"last_name"`
	Gender          string  `gorm:"size:6" json:"gender"`
	MobileNumber    string  `gorm:"size:15" json:"mobile_number"`
	PANNumber       string  `gorm:"column:pan_number;size:10" json:"pan_number"`
	VoterID         *string `gorm:"size:16" json:"voter_id"`
	IsStepCompleted bool    `gorm:"default:false" json:"is_step_completed"`

	RootForm *RootForm `gorm:"foreignKey:RootFormID" json:"-"`
}

func (PersonalDetails) TableName() string {
	return "personal_details"
}

// ServiceDetails represents service_details table (step 2, 1:1 with RootForm).
// It exclusively owns its exam rows; replacing the step replaces the set.
type ServiceDetails struct {
	AuditFields
	RootFormID             uint       `gorm:"uniqueIndex;not null" json:"root_form_id"`
	JoiningAppointmentDate time.Time  `gorm:"type:date" json:"joining_appointment_date"`
	RegularAppointmentDate *time.Time `gorm:"type:date" json:"regular_appointment_date"`
	PostAtAppointment      string     `gorm:"size:50" json:"post_at_appointment"`
	PPAN                   *string    `gorm:"column:ppan;size:20" json:"ppan"`
	PRAN                   *string    `gorm:"column:pran;size:20" json:"pran"`
	IsStepCompleted        bool       `gorm:"default:false" json:"is_step_completed"`

	RootForm *RootForm    `gorm:"foreignKey:RootFormID" json:"-"`
	Exams    []ExamDetail `gorm:"foreignKey:ServiceDetailsID" json:"exams"`
}

func (ServiceDetails) TableName() string {
	return "service_details"
}

// ExamDetail represents exam_details table
type ExamDetail struct {
	AuditFields
	ServiceDetailsID uint       `gorm:"index;not null" json:"service_details_id"`
	ExamType         string     `gorm:"size:20;not null" json:"exam_type"`
	PassingDate      *time.Time `gorm:"type:date" json:"passing_date"`
	AttemptCount     *int       `json:"attempt_count"`
}

func (ExamDetail) TableName() string {
	return "exam_details"
}

// ValidGender reports whether v is a known gender choice.
func ValidGender(v string) bool {
	return v == GenderMale || v == GenderFemale || v == GenderOther
}

// ValidPost reports whether v is a known post choice.
func ValidPost(v string) bool {
	return v == PostRevenueClerk || v == PostRevenueTalati || v == PostDeputyMamlatdar
}

// ValidExamType reports whether v is a known exam type.
func ValidExamType(v string) bool {
	switch v {
	case ExamPreService, ExamCCC, ExamCCCPlus, ExamLRQ, ExamHRQ:
		return true
	}
	return false
}

// ValidFormStatus reports whether v is a known form status.
func ValidFormStatus(v string) bool {
	return v == FormStatusPending || v == FormStatusInProgress || v == FormStatusCompleted
}
