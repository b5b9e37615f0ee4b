package authsdk

// LoginResponse is the body of a successful login or refresh.
type LoginResponse struct {
	Message     string      `json:"message"`
	AccessToken string      `json:"accessToken"`
	User        UserProfile `json:"user"`
}

// UserProfile is the redacted principal projection the service returns.
// Role-specific fields are omitted for the other role.
type UserProfile struct {
	ID               string `json:"id"`
	IDNumber         string `json:"idNumber"`
	Role             string `json:"role"`
	Campus           string `json:"campus"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Course           string `json:"course,omitempty"`
	Year             string `json:"year,omitempty"`
	MembershipStatus string `json:"membershipStatus,omitempty"`
	Position         string `json:"position,omitempty"`
	Access           string `json:"access,omitempty"`
}

type meResponse struct {
	User UserProfile `json:"user"`
}

// HealthResponse is returned by the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
