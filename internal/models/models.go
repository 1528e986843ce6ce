package models

import "time"

// CoupleRole is the role of a user inside a couple
type CoupleRole string

const (
	RoleOwner  CoupleRole = "owner"
	RoleMember CoupleRole = "member"
)

// HabitCadence is how often a habit is expected to be performed
type HabitCadence string

const (
	CadenceDaily  HabitCadence = "daily"
	CadenceWeekly HabitCadence = "weekly"
	CadenceCustom HabitCadence = "custom"
)

// HabitLogStatus is the outcome recorded for a habit on a given date
type HabitLogStatus string

const (
	StatusDone    HabitLogStatus = "done"
	StatusSkipped HabitLogStatus = "skipped"
)

// WorkoutType distinguishes gym and home workouts
type WorkoutType string

const (
	WorkoutGym  WorkoutType = "gym"
	WorkoutHome WorkoutType = "home"
)

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	AppleSub     *string   `json:"-"`
	PasswordHash *string   `json:"-"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	BirthYear    *int      `json:"birth_year,omitempty"`
	HeightCm     *int      `json:"height_cm,omitempty"`
	WeightKg     *int      `json:"weight_kg,omitempty"`
	PushToken    *string   `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Couple is the pairing container for exactly two users
type Couple struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CoupleMember links a user to a couple with a role
type CoupleMember struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	CoupleID string     `json:"couple_id"`
	Role     CoupleRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// MemberProfile is a couple member joined with display profile fields
type MemberProfile struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	Role        CoupleRole `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`
}

// CoupleSettings holds the per-couple sharing toggles
type CoupleSettings struct {
	ID                   string    `json:"id"`
	CoupleID             string    `json:"couple_id"`
	ShareProgressEnabled bool      `json:"share_progress_enabled"`
	ShareHabitsEnabled   bool      `json:"share_habits_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CoupleInvite is a single-use invite code for joining a couple
type CoupleInvite struct {
	ID        string     `json:"id"`
	CoupleID  string     `json:"couple_id"`
	Code      string     `json:"code"`
	CreatedBy string     `json:"created_by"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SharePermissions is a directed sharing grant from owner to viewer.
// Sharing is opt-in per viewer and independent of couple membership.
type SharePermissions struct {
	ID              string    `json:"id"`
	OwnerUserID     string    `json:"owner_user_id"`
	ViewerUserID    string    `json:"viewer_user_id"`
	CanViewProgress bool      `json:"can_view_progress"`
	CanViewHabits   bool      `json:"can_view_habits"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ShareGrantInfo is a grant joined with the counterpart's public profile
type ShareGrantInfo struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name"`
	AvatarURL       *string   `json:"avatar_url,omitempty"`
	CanViewProgress bool      `json:"can_view_progress"`
	CanViewHabits   bool      `json:"can_view_habits"`
	CreatedAt       time.Time `json:"created_at"`
}

// Habit belongs to exactly one user
type Habit struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id"`
	Name              string       `json:"name"`
	Cadence           HabitCadence `json:"cadence"`
	ReminderTimeLocal *string      `json:"reminder_time_local,omitempty"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// HabitWithToday is a habit plus the status logged for today, if any
type HabitWithToday struct {
	Habit
	TodayStatus *HabitLogStatus `json:"today_status"`
}

// HabitLog records the outcome of a habit for one calendar date.
// At most one log exists per (habit_id, date); re-logging the same date
// overwrites status and notes and keeps the original row.
type HabitLog struct {
	ID        string         `json:"id"`
	HabitID   string         `json:"habit_id"`
	Date      Date           `json:"date"`
	Status    HabitLogStatus `json:"status"`
	Notes     *string        `json:"notes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// HabitLogEntry is a log joined with its habit name for list responses
type HabitLogEntry struct {
	HabitLog
	HabitName string `json:"habit_name"`
}

// ProgressSnapshot is a date-keyed bag of numeric body metrics.
// At most one snapshot exists per (user_id, date).
type ProgressSnapshot struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Date      Date               `json:"date"`
	Metrics   map[string]float64 `json:"metrics"`
	CreatedAt time.Time          `json:"created_at"`
}

// ExerciseSpec is one exercise inside a template or performed session
type ExerciseSpec struct {
	Name        string   `json:"name"`
	Sets        int      `json:"sets,omitempty"`
	Reps        int      `json:"reps,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	DurationSec *int     `json:"duration_sec,omitempty"`
}

// TemplateOwner is the tagged ownership of a workout template: either a
// specific user or the system (ownerless, visible to everyone).
type TemplateOwner struct {
	UserID string
	System bool
}

// UserOwner returns ownership by the given user
func UserOwner(userID string) TemplateOwner {
	return TemplateOwner{UserID: userID}
}

// SystemOwner returns system (global) ownership
func SystemOwner() TemplateOwner {
	return TemplateOwner{System: true}
}

// WorkoutTemplate is a reusable exercise plan
type WorkoutTemplate struct {
	ID        string         `json:"id"`
	Owner     TemplateOwner  `json:"-"`
	Name      string         `json:"name"`
	Type      WorkoutType    `json:"type"`
	Exercises []ExerciseSpec `json:"exercises"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsSystem reports whether the template is a global system template
func (t *WorkoutTemplate) IsSystem() bool {
	return t.Owner.System
}

// WorkoutSession is a performed workout. CoupleID is snapshotted at creation
// time and never re-synced; Metrics are computed once when the session is
// created with an end time.
type WorkoutSession struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	CoupleID           *string            `json:"couple_id,omitempty"`
	TemplateID         *string            `json:"template_id,omitempty"`
	Mode               WorkoutType        `json:"mode"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            *time.Time         `json:"end_time,omitempty"`
	Notes              *string            `json:"notes,omitempty"`
	ExercisesPerformed []ExerciseSpec     `json:"exercises_performed"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}
