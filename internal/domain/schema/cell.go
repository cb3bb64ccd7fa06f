package schema

// CellValue is one spreadsheet cell. Most cells are plain text; roster
// sheets also carry hyperlinked cells (player name linking to a portal
// profile), modeled as a tagged variant instead of runtime type sniffing.
type CellValue struct {
	text   string
	url    string
	linked bool
}

func Plain(text string) CellValue {
	return CellValue{text: text}
}

func Linked(text, url string) CellValue {
	return CellValue{text: text, url: url, linked: true}
}

func (c CellValue) Text() string { return c.text }

// URL returns the hyperlink target and whether the cell is linked.
func (c CellValue) URL() (string, bool) {
	return c.url, c.linked
}

func (c CellValue) IsLinked() bool { return c.linked }

// Row is an ordered sequence of cells addressable by column index.
type Row []CellValue

// Texts flattens a row to its visible text.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.text
	}
	return out
}

// PlainRow wraps raw strings as plain cells.
func PlainRow(values []string) Row {
	out := make(Row, len(values))
	for i, v := range values {
		out[i] = Plain(v)
	}
	return out
}
