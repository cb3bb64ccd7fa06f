package roster

import "github.com/BigLep/roster-sync/internal/domain/schema"

// Column names of the authoritative roster sheet.
const (
	ColFirstName       = "First Name"
	ColLastName        = "Last Name"
	ColGrade           = "Grade"
	ColGuardianSigned  = "Parents Signed"
	ColPlayerSigned    = "Player Signed"
	ColPhysicalCleared = "Physical Cleared"
	ColQuestionnaire   = "Questionnaire"
	ColGuardian1OnList = "Parent 1 On Mailing List"
	ColGuardian2OnList = "Parent 2 On Mailing List"
)

// Pattern column names for the portal columns, whose exact header text is
// owned by whoever administers the sheet.
const (
	PatternPortalKey = "portal lookup key"
	PatternPortalID  = "portal external id"
)

// SheetContract declares what the roster sheet must look like before any
// dependent cache or synthesis run may trust it.
func SheetContract() schema.Contract {
	return schema.Contract{
		Columns: []schema.Column{
			{Name: ColFirstName, Required: true, Kind: schema.KindString},
			{Name: ColLastName, Required: true, Kind: schema.KindString},
			{Name: ColGrade, Kind: schema.KindString},
			{Name: ColGuardianSigned, Required: true, Kind: schema.KindBoolean},
			{Name: ColPlayerSigned, Required: true, Kind: schema.KindBoolean},
			{Name: ColPhysicalCleared, Required: true, Kind: schema.KindBoolean},
			{Name: ColQuestionnaire, Kind: schema.KindBoolean},
			{Name: ColGuardian1OnList, Kind: schema.KindBoolean},
			{Name: ColGuardian2OnList, Kind: schema.KindBoolean},
		},
		Patterns: []schema.PatternColumn{
			schema.MustPattern(PatternPortalKey, `portal.*(user|name|key)`),
			schema.MustPattern(PatternPortalID, `portal.*id`),
		},
	}
}

// SheetField binds one roster sheet column to the profile value it is
// synthesized from. Synthesis walks this list to build a player's row in
// full; nothing is carried over from the old row.
type SheetField struct {
	Column string
	Value  func(IntegratedProfile) string
}

// SheetFields is the ordered source mapping for synthesized columns.
func SheetFields() []SheetField {
	return []SheetField{
		{Column: ColFirstName, Value: func(p IntegratedProfile) string { return p.FirstName }},
		{Column: ColLastName, Value: func(p IntegratedProfile) string { return p.LastName }},
		{Column: ColGrade, Value: func(p IntegratedProfile) string { return p.Grade }},
		{Column: ColGuardianSigned, Value: func(p IntegratedProfile) string { return FormatFlag(p.GuardianSigned) }},
		{Column: ColPlayerSigned, Value: func(p IntegratedProfile) string { return FormatFlag(p.PlayerSigned) }},
		{Column: ColPhysicalCleared, Value: func(p IntegratedProfile) string { return FormatFlag(p.PhysicalCleared) }},
		{Column: ColQuestionnaire, Value: func(p IntegratedProfile) string { return FormatFlag(p.Questionnaire) }},
		{Column: ColGuardian1OnList, Value: func(p IntegratedProfile) string { return FormatFlag(p.Guardian1OnList) }},
		{Column: ColGuardian2OnList, Value: func(p IntegratedProfile) string { return FormatFlag(p.Guardian2OnList) }},
	}
}

// FormatFlag renders a completion flag the way the sheet displays it.
func FormatFlag(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
