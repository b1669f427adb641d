package domain

import "time"

const (
	DefaultBaselineScore = 50
	DefaultEnergyLevel   = 5
	MinEnergyLevel       = 1
	MaxEnergyLevel       = 10
)

// User represents an authenticated identity together with its behavioral baseline.
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email,omitempty"`
	Role     string            `json:"role"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata,omitempty"`

	BaselineProductivityScore int  `json:"baseline_productivity_score"`
	BaselineDistractionScore  int  `json:"baseline_distraction_score"`
	CurrentEnergyLevel        int  `json:"current_energy_level"`
	CurrentMood               Mood `json:"current_mood"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser returns a user with default baseline, energy and mood.
func NewUser(id string) *User {
	return &User{
		ID:                        id,
		Role:                      "user",
		Status:                    "active",
		BaselineProductivityScore: DefaultBaselineScore,
		BaselineDistractionScore:  DefaultBaselineScore,
		CurrentEnergyLevel:        DefaultEnergyLevel,
		CurrentMood:               MoodNeutral,
	}
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}

// Baseline is a snapshot of the user's rolling averages.
type Baseline struct {
	Productivity int `json:"productivity"`
	Distraction  int `json:"distraction"`
}

// Baseline returns the current baseline snapshot.
func (u *User) Baseline() Baseline {
	return Baseline{
		Productivity: u.BaselineProductivityScore,
		Distraction:  u.BaselineDistractionScore,
	}
}
