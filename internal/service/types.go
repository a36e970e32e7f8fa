package service

// CreateJournalRequest はジャーナル作成リクエスト
// UserIDは上流で認証済みのIDであり、本層では検証しない
type CreateJournalRequest struct {
	UserID    string
	Title     string
	Content   string
	Tags      []string
	CreatedAt *string // nullならサーバー側で現在時刻を設定
}

// ListByOwnerRequest は所有者別一覧取得リクエスト
type ListByOwnerRequest struct {
	UserID string
	Limit  *int // default 10
}
