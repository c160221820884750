package services

import (
	"regexp"
	"sort"
	"strings"

	"onboarding-copilot/models"
)

// domainKeywords are high-precision phrases that anchor a query to a
// department regardless of what the classifier says. English entries
// are matched with ASCII word boundaries; Arabic entries with Unicode
// letter boundaries.
var domainKeywords = map[string][]string{
	models.DepartmentHR: {
		"benefits", "insurance", "401k", "401(k)", "paid time off", "pto",
		"vacation", "sick leave", "parental leave", "maternity", "paternity",
		"holiday", "holidays", "dental", "vision", "health insurance",
		"enrollment", "open enrollment", "fsa", "hsa", "payslip",
		"employee handbook", "dress code", "remote work", "work from home",
		"performance review", "probation", "resignation",
		"إجازة", "تأمين", "الموارد البشرية",
	},
	models.DepartmentIT: {
		"laptop", "computer", "monitor", "keyboard", "email", "slack",
		"vpn", "password", "mfa", "two-factor", "multi-factor", "okta",
		"single sign-on", "sso", "wifi", "wi-fi", "network", "printer",
		"software", "install", "access request", "jira", "github",
		"helpdesk", "ticket", "it support",
		"حاسوب", "كلمة المرور", "الشبكة", "البريد الإلكتروني",
	},
	models.DepartmentSecurity: {
		"security training", "security awareness", "nda",
		"non-disclosure", "phishing", "badge", "access badge",
		"data classification", "gdpr", "compliance training",
		"incident report", "confidential", "clean desk", "tailgating",
		"encryption", "data breach",
		"أمان", "تصريح", "تصيد",
	},
	models.DepartmentFinance: {
		"payroll", "salary", "expense", "expenses", "reimbursement",
		"reimburse", "corporate card", "company card", "per diem",
		"invoice", "w-2", "w2", "w-4", "tax form", "direct deposit",
		"pay schedule", "paycheck", "stock options", "equity", "bonus",
		"راتب", "مصاريف", "فاتورة",
	},
}

type keywordPattern struct {
	keyword string
	re      *regexp.Regexp
}

var domainPatterns = compileDomainPatterns()

func compileDomainPatterns() map[string][]keywordPattern {
	out := make(map[string][]keywordPattern, len(domainKeywords))
	for dept, keywords := range domainKeywords {
		patterns := make([]keywordPattern, 0, len(keywords))
		for _, kw := range keywords {
			patterns = append(patterns, keywordPattern{keyword: kw, re: keywordRegexp(kw)})
		}
		out[dept] = patterns
	}
	return out
}

// keywordRegexp builds a whole-word matcher. RE2's \b is ASCII-only,
// so non-ASCII keywords use explicit letter/digit boundaries instead.
func keywordRegexp(keyword string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(keyword))
	if isASCII(keyword) {
		return regexp.MustCompile(`\b` + quoted + `\b`)
	}
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + quoted + `(?:[^\p{L}\p{N}]|$)`)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

// DomainSignal records that a department's keywords matched the query.
type DomainSignal struct {
	Department string
	Keywords   []string
	FirstIndex int
}

// DomainSignals scans the query for department keywords and returns
// one signal per matched department, ordered by the position of each
// department's earliest match in the query.
func DomainSignals(query string) []DomainSignal {
	lowered := strings.ToLower(query)

	var signals []DomainSignal
	for dept, patterns := range domainPatterns {
		first := -1
		var matched []string
		for _, p := range patterns {
			loc := p.re.FindStringIndex(lowered)
			if loc == nil {
				continue
			}
			matched = append(matched, p.keyword)
			if first == -1 || loc[0] < first {
				first = loc[0]
			}
		}
		if first >= 0 {
			sort.Strings(matched)
			signals = append(signals, DomainSignal{
				Department: dept,
				Keywords:   matched,
				FirstIndex: first,
			})
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].FirstIndex != signals[j].FirstIndex {
			return signals[i].FirstIndex < signals[j].FirstIndex
		}
		return signals[i].Department < signals[j].Department
	})
	return signals
}
