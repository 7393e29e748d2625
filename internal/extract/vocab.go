package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/claimrisk/internal/model"
)

// Fixed vocabularies. Terms match at a word start, so "symptoms" counts for "symptom"
// but "latest" does not count for "test".
var (
	medicalTerms = []string{
		"diagnosis", "treatment", "symptom", "disease", "condition", "medication",
		"prescription", "dosage", "therapy", "surgery", "procedure", "examination",
		"test", "result", "patient",
	}
	prescriptionTerms = []string{
		"prescription", "rx", "medication", "drug", "tablet", "capsule", "dosage",
		"frequency", "duration", "pharmacy", "pharmacist",
	}
	invoiceTerms = []string{
		"invoice", "bill", "receipt", "amount", "total", "charge", "payment",
		"due", "balance", "tax", "discount", "subtotal",
	}
)

var (
	medicalTermRe      = vocabularyRegexp(medicalTerms)
	prescriptionTermRe = vocabularyRegexp(prescriptionTerms)
	invoiceTermRe      = vocabularyRegexp(invoiceTerms)
)

// Presence flags; any synonym sets the flag
var (
	signatureRe = regexp.MustCompile(`(?i)\b(?:signature|signed|authori[sz]ed)`)
	stampRe     = regexp.MustCompile(`(?i)\b(?:stamp|seal|official)`)
	doctorRe    = regexp.MustCompile(`(?i)\bdr\.|\b(?:doctor|physician|md|mbbs)\b`)
	hospitalRe  = regexp.MustCompile(`(?i)\b(?:hospital|clinic|medical cent(?:er|re)|healthcare|nursing home)`)
	policyRe    = regexp.MustCompile(`(?i)\bpolicy\b|\bpol-\w+`)
	claimRe     = regexp.MustCompile(`(?i)\bclaim\b|\bclm-\w+`)
)

// Contacts
var (
	phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[\s-]?)?\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

func vocabularyRegexp(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)`)
}

// countTerms counts distinct vocabulary terms present in text
func countTerms(re *regexp.Regexp, text string) int {
	seen := make(map[string]struct{})
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		seen[strings.ToLower(m[1])] = struct{}{}
	}
	return len(seen)
}

func detectFlags(text string, terms model.TermCounts) model.Flags {
	return model.Flags{
		HasSignature:    signatureRe.MatchString(text),
		HasStamp:        stampRe.MatchString(text),
		HasDoctorName:   doctorRe.MatchString(text),
		HasHospitalName: hospitalRe.MatchString(text),
		HasMedicalTerms: terms.Medical > 0,
		HasPolicyNumber: policyRe.MatchString(text),
		HasClaimNumber:  claimRe.MatchString(text),
	}
}

func extractContacts(text string) model.ContactRefs {
	refs := model.ContactRefs{Phones: []string{}, Emails: []string{}}

	seenPhones := make(map[string]struct{})
	for _, p := range phoneRe.FindAllString(text, -1) {
		digits := onlyDigits(p)
		if _, ok := seenPhones[digits]; ok {
			continue
		}
		seenPhones[digits] = struct{}{}
		refs.Phones = append(refs.Phones, strings.TrimSpace(p))
	}

	seenEmails := make(map[string]struct{})
	for _, e := range emailRe.FindAllString(text, -1) {
		e = strings.ToLower(e)
		if _, ok := seenEmails[e]; ok {
			continue
		}
		seenEmails[e] = struct{}{}
		refs.Emails = append(refs.Emails, e)
	}
	return refs
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
