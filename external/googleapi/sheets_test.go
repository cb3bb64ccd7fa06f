package googleapi

import "testing"

func TestParseCell_HyperlinkFormula(t *testing.T) {
	t.Parallel()

	cell := parseCell(`=HYPERLINK("https://portal.example.com/p/98211","Alex Nguyen")`)
	if cell.Text() != "Alex Nguyen" {
		t.Fatalf("expected display text, got %q", cell.Text())
	}
	url, linked := cell.URL()
	if !linked || url != "https://portal.example.com/p/98211" {
		t.Fatalf("expected target url, got %q linked=%v", url, linked)
	}
}

func TestParseCell_HyperlinkVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		text string
		url  string
	}{
		{
			name: "lowercase function name",
			in:   `=hyperlink("https://example.com","text")`,
			text: "text",
			url:  "https://example.com",
		},
		{
			name: "semicolon locale separator",
			in:   `=HYPERLINK("https://example.com"; "text")`,
			text: "text",
			url:  "https://example.com",
		},
		{
			name: "surrounding whitespace",
			in:   `  =HYPERLINK( "https://example.com" , "text" )  `,
			text: "text",
			url:  "https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := parseCell(tt.in)
			url, linked := cell.URL()
			if cell.Text() != tt.text || !linked || url != tt.url {
				t.Fatalf("parseCell(%q) = {%q %q}", tt.in, cell.Text(), url)
			}
		})
	}
}

func TestCellText_ScalarCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "string", in: "Alex", want: "Alex"},
		{name: "integer number", in: float64(9), want: "9"},
		{name: "fractional number", in: float64(10.5), want: "10.5"},
		{name: "large number stays plain", in: float64(98211), want: "98211"},
		{name: "bool true", in: true, want: "true"},
		{name: "bool false", in: false, want: "false"},
		{name: "null cell", in: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellText(tt.in); got != tt.want {
				t.Fatalf("cellText(%v) = %q, expected %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCell_PlainText(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Alex", "", "=SUM(A1:A2)", `HYPERLINK("x","y")`} {
		cell := parseCell(in)
		if cell.Text() != in || cell.IsLinked() {
			t.Fatalf("parseCell(%q) = {%q linked=%v}, expected plain text", in, cell.Text(), cell.IsLinked())
		}
	}
}
