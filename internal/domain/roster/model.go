// Package roster holds the canonical player model: the FinalForms source
// records that anchor player identity, and the integrated per-player profile
// produced by joining all three sources.
package roster

import "strings"

// FinalFormsRecord is one player row from the FinalForms export. FinalForms
// is the system of record for identity: players absent from it do not exist
// for integration purposes.
type FinalFormsRecord struct {
	FirstName       string
	LastName        string
	Grade           string
	GuardianEmail1  string
	GuardianEmail2  string
	GuardianSigned  bool
	PlayerSigned    bool
	PhysicalCleared bool
}

// IntegratedProfile is the canonical per-player record. A new integration
// pass always produces a brand-new set; profiles are never patched in place.
type IntegratedProfile struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Grade           string `json:"grade,omitempty"`
	GuardianEmail1  string `json:"guardianEmail1,omitempty"`
	GuardianEmail2  string `json:"guardianEmail2,omitempty"`
	GuardianSigned  bool   `json:"guardianSigned"`
	PlayerSigned    bool   `json:"playerSigned"`
	PhysicalCleared bool   `json:"physicalCleared"`
	Questionnaire   bool   `json:"questionnaireCompleted"`
	Guardian1OnList bool   `json:"guardian1OnMailingList"`
	Guardian2OnList bool   `json:"guardian2OnMailingList"`
}

// Identity is the player's display identity, derived from the FinalForms
// name pair.
func (p IntegratedProfile) Identity() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Statistics aggregates completion flags across all profiles.
type Statistics struct {
	Players         int `json:"players"`
	GuardianSigned  int `json:"guardianSigned"`
	PlayerSigned    int `json:"playerSigned"`
	PhysicalCleared int `json:"physicalCleared"`
	Questionnaire   int `json:"questionnaireCompleted"`
	Guardian1OnList int `json:"guardian1OnMailingList"`
	Guardian2OnList int `json:"guardian2OnMailingList"`
	FullyComplete   int `json:"fullyComplete"`
}

// IntegratedData is the computed-tier payload: profiles plus statistics.
type IntegratedData struct {
	Profiles   []IntegratedProfile `json:"profiles"`
	Statistics Statistics          `json:"statistics"`
}
