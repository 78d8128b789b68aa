package models

// NounForm is one declined form of a noun
type NounForm struct {
	ID      int64
	LemmaID int64
	Form    string
	Number  string
	Case    string
	Gender  string
	Dialect string
}

// VerbForm is one conjugated form of a verb
type VerbForm struct {
	ID           int64
	LemmaID      int64
	Headword     string
	Form         string
	Person       string
	Number       string
	Tense        string
	Mood         string
	Voice        string
	VerbFormType string
	Dialect      string
}

// FormAnalysis is one reading of a surface form, as printed by check-forms
type FormAnalysis struct {
	FormID       int64
	Headword     string
	POSCode      string
	Form         string
	Tense        string
	Mood         string
	Voice        string
	Person       string
	Number       string
	Case         string
	Gender       string
	VerbFormType string
	Dialect      string
	Source       string
	Tags         string
}

// DefaultDialect is reported for forms without a dialect tag
const DefaultDialect = "attic"
