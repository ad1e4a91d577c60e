package base

import "testing"

func TestEqEscapesValue(t *testing.T) {
	got := Eq("Email", `o'brien@example.com`).String()
	want := `{Email}='o\'brien@example.com'`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEqEscapesBackslash(t *testing.T) {
	got := Eq("Notes", `a\b`).String()
	want := `{Notes}='a\\b'`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFindInJoined(t *testing.T) {
	got := FindInJoined("Outlet", "Blog").String()
	want := `FIND('Blog', ARRAYJOIN({Outlet}))`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAndDropsZeroParts(t *testing.T) {
	got := And(Truthy("Mailable"), Formula{}, Eq("Region", "UK")).String()
	want := `AND({Mailable}, {Region}='UK')`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAndSinglePartIsUnwrapped(t *testing.T) {
	got := And(Formula{}, Truthy("Mailable")).String()
	want := `{Mailable}`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAndAllZeroIsZero(t *testing.T) {
	f := And(Formula{}, Formula{})
	if !f.IsZero() {
		t.Fatalf("expected zero formula, got %q", f.String())
	}
}

func TestOrComposition(t *testing.T) {
	got := Or(RecordIDEq("rec1"), RecordIDEq("rec2")).String()
	want := `OR(RECORD_ID()='rec1', RECORD_ID()='rec2')`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNot(t *testing.T) {
	got := Not(Blank("Status")).String()
	want := `NOT({Status}='')`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if !Not(Formula{}).IsZero() {
		t.Fatalf("expected NOT of zero formula to stay zero")
	}
}

func TestNestedComposition(t *testing.T) {
	f := And(
		Truthy("Mailable"),
		Or(Eq("Region", "UK"), Eq("Region", "Iberia")),
	)
	want := `AND({Mailable}, OR({Region}='UK', {Region}='Iberia'))`
	if f.String() != want {
		t.Fatalf("expected %q, got %q", want, f.String())
	}
}
