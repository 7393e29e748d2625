package extract

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimrisk/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []time.Time
	}{
		{"iso", "Admitted 2024-03-12.", []time.Time{day(2024, 3, 12)}},
		{"numeric day first", "Visit on 05/03/2024", []time.Time{day(2024, 3, 5)}},
		{"numeric month first when day > 12", "Visit on 03/25/2024", []time.Time{day(2024, 3, 25)}},
		{"two digit year", "Paid 12-03-24", []time.Time{day(2024, 3, 12)}},
		{"dotted", "Datum 12.03.2024", []time.Time{day(2024, 3, 12)}},
		{"day month name", "Discharged on 14th March 2024", []time.Time{day(2024, 3, 14)}},
		{"month name day", "Invoice dated Mar 16, 2024", []time.Time{day(2024, 3, 16)}},
		{"order of appearance", "From 2024-03-20 to 10/03/2024", []time.Time{day(2024, 3, 20), day(2024, 3, 10)}},
		{"duplicates at distinct positions", "12/03/2024 and again 12/03/2024", []time.Time{day(2024, 3, 12), day(2024, 3, 12)}},
		{"invalid calendar date", "Due 31/02/2024", []time.Time{}},
		{"no dates", "Patient reports mild symptoms", []time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractDates(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractDates(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractAmounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []float64
	}{
		{"dollar", "Total $1,234.56 due", []float64{1234.56}},
		{"rupees prefix", "Paid Rs. 500 and Rs 20", []float64{500, 20}},
		{"rupee sign", "Amount ₹2,500", []float64{2500}},
		{"euro decimal comma", "Summe €1.234,56", []float64{1234.56}},
		{"suffix code", "Charge 300.00 USD", []float64{300}},
		{"suffix word", "Balance 750 rupees", []float64{750}},
		{"code prefix", "USD 45.5 paid", []float64{45.5}},
		{"us dollar counted once", "Total US$99", []float64{99}},
		{"order kept", "$520.00 then $500.00", []float64{520, 500}},
		{"bare numbers ignored", "Room 204, 3 nights", []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractAmounts(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractAmounts(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := map[string]float64{
		"500":          500,
		"1,234":        1234,
		"1,234.50":     1234.5,
		"1.234,50":     1234.5,
		"12,5":         12.5,
		"1.234.567":    1234567,
		"1'250.00":     1250,
		"99.9":         99.9,
		"1,234,567.89": 1234567.89,
	}
	for in, want := range tests {
		got, ok := parseAmount(in)
		if !ok || got != want {
			t.Errorf("parseAmount(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
}

func TestParseFeatures_MedicalReport(t *testing.T) {
	text := `City Hospital, Department of Orthopaedics
Patient: A. Kumar   Policy No: POL-12345   Claim: CLM-777
Date of admission: 12/03/2024
Diagnosis: closed fracture of the left radius. Treatment: cast and medication.
Dr. Mehta, MBBS
Signature: ______   Official stamp affixed.
Contact 555-123-4567 or records@cityhospital.example.com`

	f := ParseFeatures("doc-1", model.DeclaredMedicalReport, "text/plain", text)

	if f.WordCount != len(strings.Fields(text)) {
		t.Errorf("WordCount = %d", f.WordCount)
	}
	want := model.Flags{
		HasSignature: true, HasStamp: true, HasDoctorName: true, HasHospitalName: true,
		HasMedicalTerms: true, HasPolicyNumber: true, HasClaimNumber: true,
	}
	if f.Flags != want {
		t.Errorf("Flags = %+v, want %+v", f.Flags, want)
	}
	if len(f.ExtractedDates) != 1 || !f.ExtractedDates[0].Equal(day(2024, 3, 12)) {
		t.Errorf("ExtractedDates = %v", f.ExtractedDates)
	}
	if f.Terms.Medical < 4 {
		t.Errorf("expected several medical terms, got %d", f.Terms.Medical)
	}
	if !reflect.DeepEqual(f.Contacts.Phones, []string{"555-123-4567"}) {
		t.Errorf("Phones = %v", f.Contacts.Phones)
	}
	if !reflect.DeepEqual(f.Contacts.Emails, []string{"records@cityhospital.example.com"}) {
		t.Errorf("Emails = %v", f.Contacts.Emails)
	}
	if f.RawTextLength == 0 || f.Preview != text {
		t.Error("expected preview to hold the full short text")
	}
}

func TestParseFeatures_EmptyTextIsAllAbsent(t *testing.T) {
	for _, text := range []string{"", "   \n\t  "} {
		f := ParseFeatures("doc-x", model.DeclaredInvoice, "application/pdf", text)
		if f.WordCount != 0 || f.RawTextLength != 0 {
			t.Errorf("expected zero counts, got %+v", f)
		}
		if f.Flags.Any() || f.HasDates() || f.HasAmounts() {
			t.Errorf("expected all-absent record, got %+v", f)
		}
		if f.ExtractedDates == nil || f.ExtractedAmts == nil {
			t.Error("sequences should be empty, not nil")
		}
	}
}

func TestParseFeatures_TermsMatchWordStarts(t *testing.T) {
	f := ParseFeatures("d", model.DeclaredOther, "text/plain", "The latest contest results")
	if f.Terms.Medical != 1 {
		t.Errorf("expected only 'result' to match, got %d", f.Terms.Medical)
	}
}

func TestPreviewTruncates(t *testing.T) {
	text := strings.Repeat("é", previewLength+50)
	if got := preview(text); len([]rune(got)) != previewLength {
		t.Errorf("preview length = %d", len([]rune(got)))
	}
}
