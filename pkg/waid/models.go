package waid

import (
	"time"

	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// Installation is an entry of the user's installation list.
type Installation struct {
	ID              string        `json:"id"                yaml:"id"`
	Domain          string        `json:"domain"            yaml:"domain"`
	URL             string        `json:"url"               yaml:"url"`
	CloudPlanID     string        `json:"cloud_plan_id"     yaml:"cloud_plan_id,omitempty"`
	CloudExpireDate webasyst.Date `json:"cloud_expire_date" yaml:"-"`
	CloudTrial      bool          `json:"cloud_trial"       yaml:"cloud_trial"`
	CloudName       string        `json:"cloud_name"        yaml:"cloud_name,omitempty"`
}

// APIInstallation converts the entry into the value the API modules take.
func (i Installation) APIInstallation() webasyst.Installation {
	return webasyst.NewInstallation(i.ID, i.URL)
}

// Contact is an email address or phone number of the user.
type Contact struct {
	Value  string `json:"value"  yaml:"value"`
	Ext    string `json:"ext"    yaml:"ext,omitempty"`
	Status string `json:"status" yaml:"status,omitempty"`
}

// UserInfo is the WAID profile.
type UserInfo struct {
	Name                string    `json:"name"                  yaml:"name"`
	FirstName           string    `json:"firstname"             yaml:"firstname"`
	LastName            string    `json:"lastname"              yaml:"lastname"`
	MiddleName          string    `json:"middlename"            yaml:"middlename"`
	Email               []Contact `json:"email"                 yaml:"email"`
	Phone               []Contact `json:"phone"                 yaml:"phone"`
	Userpic             string    `json:"userpic"               yaml:"userpic"`
	UserpicOriginalCrop string    `json:"userpic_original_crop" yaml:"userpic_original_crop"`
	UserpicUploaded     bool      `json:"userpic_uploaded"      yaml:"userpic_uploaded"`
}

// PrimaryEmail returns the first email address or "".
func (u UserInfo) PrimaryEmail() string {
	if len(u.Email) == 0 {
		return ""
	}

	return u.Email[0].Value
}

// UpdateUserInfo is a partial profile update. Nil fields are left alone.
type UpdateUserInfo struct {
	FirstName  *string  `json:"firstname,omitempty"`
	LastName   *string  `json:"lastname,omitempty"`
	MiddleName *string  `json:"middlename,omitempty"`
	Email      []string `json:"email,omitempty"`
	Phone      []string `json:"phone,omitempty"`
}

// CloudSignup requests a new cloud installation.
type CloudSignup struct {
	PlanID      *string `json:"plan_id,omitempty"`
	Bundle      string  `json:"bundle"`
	UserDomain  string  `json:"userdomain"`
	AccountName string  `json:"account_name"`
}

// CloudSignupResponse describes the created installation.
type CloudSignupResponse struct {
	ID           string `json:"id"`
	Domain       string `json:"domain"`
	URL          string `json:"url"`
	AuthEndpoint string `json:"auth_endpoint"`
	// Present when the server returns the extended form.
	CloudPlanID     string        `json:"cloud_plan_id,omitempty"`
	CloudExpireDate webasyst.Date `json:"cloud_expire_date"`
	CloudTrial      bool          `json:"cloud_trial,omitempty"`
	CloudName       string        `json:"cloud_name,omitempty"`
}

type cloudExtendRequest struct {
	ClientID   string        `json:"client_id"`
	ExpireDate webasyst.Date `json:"expire_date"`
}

type cloudRenameRequest struct {
	ClientID string `json:"client_id"`
	Domain   string `json:"domain"`
}

type forceLicenseRequest struct {
	ClientID string `json:"client_id"`
	Slug     string `json:"slug"`
}

type clientTokenRequest struct {
	ClientID []string `json:"client_id"`
}

// MergeCodeResponse is a one-time code for merging accounts.
type MergeCodeResponse struct {
	Code    string `json:"code"`
	Expires int64  `json:"expires"`
}

// ExpiresAt converts Expires, a unix timestamp, to time.
func (m MergeCodeResponse) ExpiresAt() time.Time {
	return time.Unix(m.Expires, 0)
}

// HeadlessCodeRequest asks WAID to send a sign-in code by email or SMS.
// Exactly one of Email and Phone must be set.
type HeadlessCodeRequest struct {
	Email  string
	Phone  string
	Locale string
	Scope  webasyst.Scope
}

// HeadlessCodeResult keeps the challenge needed to exchange the code.
type HeadlessCodeResult struct {
	NextRequestAllowedAt time.Time
	Challenge            CodeChallenge
}

type headlessCodeResponse struct {
	NextRequestAllowedAt int64 `json:"next_request_allowed_at"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
