package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID               string    `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password" json:"-"`
	StripeCustomerID string    `db:"stripe_customer_id" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Profile is the academic profile a user fills in during onboarding.
// Preferences is stored as a JSONB column.
type Profile struct {
	UserID      string      `db:"user_id" json:"user_id"`
	FullName    string      `db:"full_name" json:"full_name"`
	Phone       string      `db:"phone" json:"phone"`
	Country     string      `db:"country" json:"country"`
	GradYear    int         `db:"grad_year" json:"grad_year"`
	Preferences Preferences `db:"preferences" json:"preferences"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Preferences is the nested preference structure inside a profile.
type Preferences struct {
	IntendedMajor    string   `json:"intended_major"`
	BudgetUSD        int      `json:"budget_usd"`
	Curriculum       string   `json:"curriculum"` // e.g. "IB", "A-Level", "AP"
	GPA              float64  `json:"gpa"`
	SATScore         int      `json:"sat_score"`
	IELTSBand        float64  `json:"ielts_band"`
	Extracurriculars []string `json:"extracurriculars"`
	PersonalNote     string   `json:"personal_note"`
}

// Feature is one of the quota-gated capabilities.
type Feature string

const (
	FeatureChat        Feature = "chat"
	FeatureEssay       Feature = "essay"
	FeatureRecommender Feature = "recommender"
)

// Plan is a subscription tier; limits per feature are keyed by plan.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPlus Plan = "plus"
	PlanPro  Plan = "pro"
)

// FeatureUsage is one usage counter row: how many times a user has invoked
// a feature since the start of the current window.
type FeatureUsage struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Feature   Feature   `db:"feature" json:"feature"`
	Count     int       `db:"count" json:"count"`
	LastReset time.Time `db:"last_reset" json:"last_reset"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GuestQuota tracks usage for unauthenticated visitors, keyed by a
// browser-minted guest ID. Window is 7 elapsed days from first use.
type GuestQuota struct {
	GuestID   string    `db:"guest_id" json:"guest_id"`
	Feature   Feature   `db:"feature" json:"feature"`
	Count     int       `db:"count" json:"count"`
	FirstUsed time.Time `db:"first_used" json:"first_used"`
}

// Subscription mirrors the Stripe subscription state for a user.
type Subscription struct {
	UserID               string    `db:"user_id" json:"user_id"`
	Plan                 Plan      `db:"plan" json:"plan"`
	Status               string    `db:"status" json:"status"` // active | canceled | past_due
	StripeSubscriptionID string    `db:"stripe_subscription_id" json:"-"`
	CurrentPeriodEnd     time.Time `db:"current_period_end" json:"current_period_end"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Conversation is one chat-consultant thread.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChatMessage is an individual chat message (user or assistant).
type ChatMessage struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           string    `db:"role" json:"role"` // "user" or "assistant"
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// EssayAnalysis is one stored analyzer result.
type EssayAnalysis struct {
	ID         string      `db:"id" json:"id"`
	UserID     string      `db:"user_id" json:"user_id"`
	EssayText  string      `db:"essay_text" json:"essay_text"`
	Feedback   string      `db:"feedback" json:"feedback"`
	Highlights []Highlight `db:"highlights" json:"highlights"` // JSONB
	Ratings    Ratings     `db:"ratings" json:"ratings"`       // JSONB
	ReportURL  string      `db:"report_url" json:"report_url,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// Highlight is one (excerpt, comment) pair located in the essay text.
// Start/End are byte offsets into EssayText; Start is -1 when the excerpt
// the model quoted could not be found.
type Highlight struct {
	Excerpt string `json:"excerpt"`
	Comment string `json:"comment"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Ratings holds the six category scores plus the overall score, each 1-10.
type Ratings struct {
	Clarity   int `json:"clarity"`
	Structure int `json:"structure"`
	Voice     int `json:"voice"`
	Grammar   int `json:"grammar"`
	Relevance int `json:"relevance"`
	Impact    int `json:"impact"`
	Overall   int `json:"overall"`
}

// University is one row of the seeded recommendation catalogue.
// Embedding is a pgvector column over the description text.
type University struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Country     string    `db:"country" json:"country"`
	TuitionUSD  int       `db:"tuition_usd" json:"tuition_usd"`
	Description string    `db:"description" json:"description"`
	Embedding   []float32 `db:"embedding" json:"-"`
}

// Recommendation pairs a shortlisted university with the model's reasoning.
type Recommendation struct {
	University University `json:"university"`
	Reason     string     `json:"reason"`
}

// SavedUniversity is a user's bookmarked university.
type SavedUniversity struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	UniversityID string    `db:"university_id" json:"university_id"`
	Name         string    `db:"name" json:"name"`
	Note         string    `db:"note" json:"note"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
