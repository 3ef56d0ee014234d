package territory

import "testing"

func TestKindValid(t *testing.T) {
	t.Parallel()

	valid := []Kind{KindCountry, KindUSState, KindAUState}
	for _, k := range valid {
		if !k.Valid() {
			t.Errorf("Valid(%q) = false, want true", k)
		}
	}

	invalid := []Kind{"", "province", "COUNTRY"}
	for _, k := range invalid {
		if k.Valid() {
			t.Errorf("Valid(%q) = true, want false", k)
		}
	}
}
