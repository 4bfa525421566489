package export

// MarkEntry is one subject line of a marks sheet, text exactly as entered.
type MarkEntry struct {
	Subject string
	Text    string
}

// MarksSheet is the tabular companion of a rendered poster.
type MarksSheet struct {
	Title       string
	StudentName string
	UnitLabel   string
	Percentage  string
	Entries     []MarkEntry
}
