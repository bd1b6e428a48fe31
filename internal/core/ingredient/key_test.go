package ingredient

import "testing"

func TestKey(t *testing.T) {
	if Key(UnitGram, "Flour ") != Key(UnitGram, "flour") {
		t.Fatalf("key should ignore case and surrounding spaces")
	}
	if got := Key(UnitGram, " Flour"); got != "g|flour" {
		t.Fatalf("Key: want=%q got=%q", "g|flour", got)
	}
	if got := Key("", "Eggs"); got != "|eggs" {
		t.Fatalf("Key: want=%q got=%q", "|eggs", got)
	}
	if Key(UnitGram, "flour") == Key("", "flour") {
		t.Fatalf("different units must not share a key")
	}
	if Key(UnitKilogram, "flour") == Key(UnitGram, "flour") {
		t.Fatalf("kg and g must not share a key")
	}
}

func TestIngredientKeyMatchesParse(t *testing.T) {
	a := Parse("200 g Flour, sifted")
	b := Parse("50 grams flour")
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestCanonicalizeUnit(t *testing.T) {
	ok := map[string]Unit{
		"g": UnitGram, "Grams": UnitGram, "KG": UnitKilogram, "kilos": UnitKilogram,
		"ML": UnitMilliliter, "l": UnitLiter, "L": UnitLiter, "litres": UnitLiter,
		"teaspoon": UnitTeaspoon, "Tbsp": UnitTablespoon, "tablespoons": UnitTablespoon,
	}
	for in, want := range ok {
		got, found := CanonicalizeUnit(in)
		if !found || got != want {
			t.Fatalf("CanonicalizeUnit(%q): want=%q got=%q found=%v", in, want, got, found)
		}
	}
	for _, in := range []string{"cup", "cups", "oz", "lb", "fl", "pinch", ""} {
		if _, found := CanonicalizeUnit(in); found {
			t.Fatalf("CanonicalizeUnit(%q): expected no unit", in)
		}
	}
}

func TestParseUnit(t *testing.T) {
	if u, ok := ParseUnit("L"); !ok || u != UnitLiter {
		t.Fatalf("ParseUnit(L): got=%q ok=%v", u, ok)
	}
	if _, ok := ParseUnit("l"); ok {
		t.Fatalf("ParseUnit(l): only canonical symbols are accepted")
	}
	if u, ok := ParseUnit(""); !ok || u != "" {
		t.Fatalf("ParseUnit(empty): got=%q ok=%v", u, ok)
	}
}
