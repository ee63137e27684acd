//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseLicenseID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseLicenseID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE bank_licenses;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseLicenseID(input)
		if err == nil {
			roundTrip, err2 := ParseLicenseID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures every typed ID validates identically; divergent
// parsing between account and license ids would be a boundary hole.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errLicense := ParseLicenseID(input)
		_, errAccount := ParseCorrAccountID(input)
		_, errEmission := ParseEmissionID(input)
		_, errTransaction := ParseTransactionID(input)
		_, errOfficer := ParseOfficerID(input)

		consistent := (errLicense == nil) == (errAccount == nil) &&
			(errAccount == nil) == (errEmission == nil) &&
			(errEmission == nil) == (errTransaction == nil) &&
			(errTransaction == nil) == (errOfficer == nil)
		if !consistent {
			t.Errorf("inconsistent validation for %q: license=%v account=%v emission=%v transaction=%v officer=%v",
				input, errLicense, errAccount, errEmission, errTransaction, errOfficer)
		}
	})
}

// FuzzParseAccountRef covers the composite public identifier.
func FuzzParseAccountRef(f *testing.F) {
	f.Add("CORR-KHANBK-3f2504e0")
	f.Add("")
	f.Add("CORR--")
	f.Add("corr-khanbk-3f2504e0")
	f.Add("CORR-KHANBK-3f2504e0-extra")

	f.Fuzz(func(t *testing.T, input string) {
		ref, err := ParseAccountRef(input)
		if err == nil {
			roundTrip, err2 := ParseAccountRef(ref.String())
			if err2 != nil {
				t.Errorf("valid ref failed round-trip: %v", err2)
			}
			if roundTrip != ref {
				t.Error("round-trip changed ref value")
			}
		}
	})
}
