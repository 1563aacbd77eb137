package domain

import "errors"

// 執行結果中的錯誤訊息 (以資料形式回傳，不是 Go error)
const (
	MsgCustomerNotFound     = "Authenticated customer not found"
	MsgInsufficientFunds    = "Invalid account or insufficient funds."
	MsgInvalidAmount        = "Invalid transfer amount."
	MsgSelfTransfer         = "Transfers to your own account are not allowed."
	MsgTransferLimitPattern = "Transfer amount exceeds demo limit of $%s."
)

var (
	// ErrMissingAuthorization 缺少 Authorization header
	ErrMissingAuthorization = errors.New("Missing Authorization header")

	// ErrInvalidAuthorization Authorization 格式錯誤
	ErrInvalidAuthorization = errors.New("Invalid Authorization format")

	// ErrUnknownToken token 不存在
	ErrUnknownToken = errors.New("Invalid or unknown token")

	// ErrEmptyPrompt 缺少 prompt
	ErrEmptyPrompt = errors.New("Missing 'prompt'")

	// ErrLoadRecords 載入資料失敗
	ErrLoadRecords = errors.New("load records failed")

	// ErrSaveRecords 寫回資料失敗
	ErrSaveRecords = errors.New("save records failed")

	// ErrAuditWriteFailed 寫入稽核紀錄失敗
	ErrAuditWriteFailed = errors.New("audit write failed")
)
