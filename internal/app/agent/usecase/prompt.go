package usecase

import (
	"regexp"
	"strings"
)

// systemPrompt 要求模型只輸出 {action, params} JSON
const systemPrompt = "System: You are a secure banking agent.\n" +
	"Respond ONLY with a valid JSON object of the form:\n" +
	"{ \"action\": \"<one of: clarify, get_balance, get_transactions, get_customer_info, transfer, freeze_account >\"," +
	"  \"params\": { ... } }\n" +
	"Use these exact parameter patterns:\n" +
	"  - get_balance → {}\n" +
	"  - get_transactions → {\"n\":3}\n" +
	"  - get_customer_info → {}\n" +
	"  - transfer → {\"to\":\"CUST###\",\"amount\":100.0}\n" +
	"  - freeze_account → {}\n" +
	"  - clarify → {\"message\":\"" + ClarifyMessage + "\"}\n" +
	"If you do not understand the user's request or it is unrelated to banking, respond with the 'clarify' action.\n" +
	"Return ONLY the JSON object — no markdown, code fences, or plain text."

// BuildPrompt 組出送給模型的完整 prompt
func BuildPrompt(userPrompt string) string {
	return systemPrompt + "\n\nUser: " + userPrompt
}

var piiPattern = regexp.MustCompile(`(?i)ssn|social security`)

// RiskAssessment 使用者輸入的風險評分
type RiskAssessment struct {
	Score   int
	Reasons []string
}

// AssessPrompt 以簡單規則評估 prompt injection / PII 探測風險
func AssessPrompt(text string) RiskAssessment {
	lower := strings.ToLower(text)
	var r RiskAssessment
	if strings.Contains(lower, "ignore") {
		r.Score += 40
		r.Reasons = append(r.Reasons, "System override attempt")
	}
	if piiPattern.MatchString(text) {
		r.Score += 50
		r.Reasons = append(r.Reasons, "Possible PII access attempt")
	}
	if strings.Contains(lower, "execute") {
		r.Score += 20
		r.Reasons = append(r.Reasons, "Execution-style language")
	}
	return r
}

// intentMismatch 使用者明確提到 balance/transfer，但解析出的動作不同
func intentMismatch(userPrompt string, action string) string {
	lower := strings.ToLower(userPrompt)
	switch {
	case strings.Contains(lower, "balance") && action != "get_balance":
		return "User asked about balance but parsed action differs"
	case strings.Contains(lower, "transfer") && action != "transfer":
		return "Transfer intent mismatch"
	}
	return ""
}
