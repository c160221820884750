package services

import (
	"regexp"
	"strings"
	"unicode"
)

// typoCorrections maps common onboarding-question misspellings to
// their canonical form. Applied per whole word, case-insensitive.
var typoCorrections = map[string]string{
	"benifits":      "benefits",
	"benefitts":     "benefits",
	"benfits":       "benefits",
	"insurence":     "insurance",
	"insurnace":     "insurance",
	"vaction":       "vacation",
	"vacaton":       "vacation",
	"payrol":        "payroll",
	"payrole":       "payroll",
	"reimbursment":  "reimbursement",
	"reimbursemnt":  "reimbursement",
	"expence":       "expense",
	"pasword":       "password",
	"passwrd":       "password",
	"labtop":        "laptop",
	"laptap":        "laptop",
	"compromize":    "compromise",
	"secruity":      "security",
	"securty":       "security",
	"phising":       "phishing",
	"enrolment":     "enrollment",
	"enrollement":   "enrollment",
	"onbording":     "onboarding",
	"onboaring":     "onboarding",
	"remburse":      "reimburse",
	"anual":         "annual",
	"recieve":       "receive",
	"elgible":       "eligible",
	"eligable":      "eligible",
	"maternaty":     "maternity",
	"paternaty":     "paternity",
	"retirment":     "retirement",
	"wifi":          "wi-fi",
	"helth":         "health",
	"allowence":     "allowance",
}

// abbreviationExpansions rewrites terse shorthand into the phrasing
// the policy corpus uses. Keys are matched as whole words.
var abbreviationExpansions = map[string]string{
	"pto":   "paid time off",
	"wfh":   "work from home",
	"hr":    "human resources",
	"vpn":   "VPN network access",
	"mfa":   "multi-factor authentication",
	"2fa":   "two-factor authentication",
	"sso":   "single sign-on",
	"401k":  "401(k) retirement plan",
	"fsa":   "flexible spending account",
	"hsa":   "health savings account",
	"nda":   "non-disclosure agreement",
	"eap":   "employee assistance program",
	"fmla":  "family and medical leave",
	"cobra": "COBRA continuation coverage",
	"w2":    "W-2 tax form",
	"w4":    "W-4 tax form",
	"i9":    "I-9 employment verification",
	"faq":   "frequently asked questions",
}

// QueryProcessor normalizes user queries before routing and retrieval:
// typo correction and abbreviation expansion, both bounded to whole
// words so substrings are never rewritten.
type QueryProcessor struct {
	typoPatterns map[*regexp.Regexp]string
	abbrPatterns map[*regexp.Regexp]string
}

func NewQueryProcessor() *QueryProcessor {
	qp := &QueryProcessor{
		typoPatterns: make(map[*regexp.Regexp]string, len(typoCorrections)),
		abbrPatterns: make(map[*regexp.Regexp]string, len(abbreviationExpansions)),
	}
	for typo, fixed := range typoCorrections {
		qp.typoPatterns[wholeWordPattern(typo)] = fixed
	}
	for abbr, full := range abbreviationExpansions {
		qp.abbrPatterns[wholeWordPattern(abbr)] = full
	}
	return qp
}

func wholeWordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

// Process returns the corrected and expanded form of the raw query.
// Typos are fixed first so that a misspelled abbreviation still
// expands.
func (qp *QueryProcessor) Process(raw string) string {
	out := strings.TrimSpace(raw)
	for pattern, fixed := range qp.typoPatterns {
		out = pattern.ReplaceAllString(out, fixed)
	}
	for pattern, full := range qp.abbrPatterns {
		out = pattern.ReplaceAllString(out, full)
	}
	return out
}

// DetectLanguage reports "ar" when the text contains Arabic script,
// "en" otherwise.
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return "ar"
		}
	}
	return "en"
}
