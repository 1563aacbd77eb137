package usecase

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// ClarifyMessage 關鍵字判定為 clarify 時回給使用者的固定訊息
const ClarifyMessage = "Could you please specify what help you need — balance, transfer, or account info?"

var (
	embeddedJSONPattern = regexp.MustCompile(`\{.*"action".*\}`)
	amountPattern       = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)`)
	destinationPattern  = regexp.MustCompile(`cust\d{3}`)
	sendPattern         = regexp.MustCompile(`\bsend\b`)
	codeFenceReplacer   = strings.NewReplacer("```json", "", "```", "")
)

// verdict 單一 parser 的判定
type verdict int

const (
	// pass 這層無法判斷，交給下一層
	pass verdict = iota
	// accept 取得意圖
	accept
	// reject 明確拒絕，不再往下嘗試
	reject
)

// parser 解析策略: 輸入原始文字，回傳意圖與判定
type parser struct {
	name  string
	parse func(raw string) (domain.Intent, verdict)
}

// Extractor 將模型輸出轉為結構化意圖
//
// 依序嘗試:
//  1. 整段 JSON
//  2. 文字中內嵌的 JSON
//  3. 關鍵字比對
//
// 第一個 accept 或 reject 即為結果
type Extractor struct {
	parsers []parser
	logger  *zap.Logger
}

// NewExtractor 建立 Extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		parsers: []parser{
			{name: "direct_json", parse: parseDirectJSON},
			{name: "embedded_json", parse: parseEmbeddedJSON},
			{name: "keyword", parse: parseKeywords},
		},
		logger: logger,
	}
}

// Extract 解析模型輸出
//
// 參數:
//
//	raw: 模型輸出，可為空字串、格式錯誤或惡意內容
//
// 回傳:
//
//	domain.Intent: 解析出的意圖
//	bool: false 代表無法判斷，呼叫端應要求使用者澄清
func (e *Extractor) Extract(raw string) (domain.Intent, bool) {
	for _, p := range e.parsers {
		intent, v := p.parse(raw)
		switch v {
		case accept:
			e.logger.Debug("intent extracted", zap.String("strategy", p.name), zap.String("action", string(intent.Action)))
			return intent, true
		case reject:
			e.logger.Info("rejected unknown action", zap.String("strategy", p.name), zap.String("action", string(intent.Action)))
			return domain.NewIntent("", nil), false
		}
	}
	return domain.NewIntent("", nil), false
}

func stripCodeFences(raw string) string {
	return strings.TrimSpace(codeFenceReplacer.Replace(raw))
}

// decodeObject 以 UseNumber 解析單一 JSON 物件，後面不能有多餘內容
func decodeObject(text string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	// 後面只允許空白
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return obj, true
}

func paramsOf(obj map[string]any) domain.Params {
	if p, ok := obj["params"].(map[string]any); ok {
		return domain.Params(p)
	}
	return domain.Params{}
}

// classify 對 JSON 物件套用 clarify / 允許清單判斷
// strict=true 時未知動作回傳 reject，否則 pass
func classify(obj map[string]any, strict bool) (domain.Intent, verdict) {
	raw, ok := obj["action"]
	if !ok {
		return domain.Intent{}, pass
	}
	action := domain.NormalizeAction(raw)
	params := paramsOf(obj)

	if action == domain.ActionClarify {
		return domain.NewIntent(action, params), accept
	}
	if action.IsAllowed() {
		return domain.NewIntent(action, params), accept
	}
	if strict {
		return domain.Intent{Action: action}, reject
	}
	return domain.Intent{}, pass
}

func parseDirectJSON(raw string) (domain.Intent, verdict) {
	obj, ok := decodeObject(stripCodeFences(raw))
	if !ok {
		return domain.Intent{}, pass
	}
	return classify(obj, true)
}

func parseEmbeddedJSON(raw string) (domain.Intent, verdict) {
	match := embeddedJSONPattern.FindString(stripCodeFences(raw))
	if match == "" {
		return domain.Intent{}, pass
	}
	obj, ok := decodeObject(match)
	if !ok {
		return domain.Intent{}, pass
	}
	return classify(obj, false)
}

func parseKeywords(raw string) (domain.Intent, verdict) {
	t := strings.ToLower(raw)

	// 模型在要求澄清時常會提到 balance/transfer，要先攔下
	if strings.Contains(t, "clarify") {
		return domain.NewIntent(domain.ActionClarify, domain.Params{"message": ClarifyMessage}), accept
	}

	switch {
	case strings.Contains(t, "balance"):
		return domain.NewIntent(domain.ActionGetBalance, nil), accept
	case strings.Contains(t, "transaction"):
		return domain.NewIntent(domain.ActionGetTransactions, domain.Params{"n": domain.DefaultTransactionCount}), accept
	case strings.Contains(t, "info"), strings.Contains(t, "detail"):
		return domain.NewIntent(domain.ActionGetCustomerInfo, nil), accept
	case strings.Contains(t, "transfer"), sendPattern.MatchString(t):
		return domain.NewIntent(domain.ActionTransfer, domain.Params{
			"to":     keywordDestination(t),
			"amount": keywordAmount(t),
		}), accept
	case strings.Contains(t, "freeze"):
		return domain.NewIntent(domain.ActionFreezeAccount, nil), accept
	}
	return domain.Intent{}, pass
}

func keywordAmount(t string) decimal.Decimal {
	m := amountPattern.FindStringSubmatch(t)
	if m == nil {
		return decimal.Zero
	}
	return domain.CoerceAmount(m[1])
}

func keywordDestination(t string) string {
	if m := destinationPattern.FindString(t); m != "" {
		return strings.ToUpper(m)
	}
	return domain.UnknownDestination
}
