package debate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// abstractTerms are words too generic to anchor a search on their own. A
// query made only of these would retrieve noise, so the specificity gate
// discounts them. Both English and Chinese forms appear because debate
// topics come in either language.
var abstractTerms = map[string]bool{
	"strategy": true, "strategies": true, "risk": true, "risks": true,
	"mechanism": true, "mechanisms": true, "analysis": true, "analyses": true,
	"impact": true, "impacts": true, "issue": true, "issues": true,
	"situation": true, "background": true, "trend": true, "trends": true,
	"overview": true, "general": true, "relevant": true, "related": true,
	"information": true, "content": true, "method": true, "methods": true,
	"approach": true, "approaches": true, "response": true, "responses": true,
	"management": true, "development": true, "research": true, "status": true,
	"problem": true, "problems": true, "crisis": true, "opinion": true,
	"public": true, "media": true, "news": true, "report": true, "reports": true,

	"策略": true, "风险": true, "机制": true, "分析": true, "影响": true,
	"趋势": true, "现状": true, "背景": true, "问题": true, "方法": true,
	"情况": true, "研究": true, "发展": true, "管理": true, "相关": true,
	"内容": true, "信息": true, "舆情": true, "危机": true, "公关": true,
	"应对": true, "处理": true, "措施": true, "建议": true, "报道": true,
	"新闻": true, "媒体": true, "事件": true, "话题": true, "回应": true,
}

// tokenize lowercases text and splits it into alphanumeric/CJK runs of at
// least two runes. Single characters carry too little signal either way.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if utf8.RuneCountInString(t) < 2 {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// concreteTokens drops the abstract stoplist.
func concreteTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if abstractTerms[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// dedupeTokens keeps the first occurrence of each token, up to max.
func dedupeTokens(tokens []string, max int) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == max {
			break
		}
	}
	return out
}

// IsSpecificQuery is the specificity gate: a query survives only with at
// least two concrete (non-stoplist) tokens. "策略 风险" fails, "某平台
// 2024年3月 通报" passes.
func IsSpecificQuery(query string) bool {
	return len(concreteTokens(tokenize(query))) >= 2
}
