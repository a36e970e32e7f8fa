// Package model defines the domain entities of journal-store.
package model

// Journal はジャーナル1件を表す（内部データモデル）
// ストア上のpayloadフィールド名はJSONタグと一致する（idのみpayload外）
type Journal struct {
	ID        string   `json:"id"`                  // UUID形式、リポジトリが採番
	UserID    string   `json:"userId"`              // 所有者。作成時に確定し、以降不変
	Title     string   `json:"title"`               // 必須
	Content   string   `json:"content"`             // 必須
	Tags      []string `json:"tags"`                // 空配列可
	CreatedAt string   `json:"createdAt"`           // ISO8601 UTC形式
	UpdatedAt *string  `json:"updatedAt,omitempty"` // 更新時のみ設定
}

// 入力値の上限
const (
	MaxTitleLength   = 200
	MaxContentLength = 1000
)

// JournalPatch はジャーナル更新パッチ。nilは変更なし
// UserID/CreatedAtはフィールド自体を持たないため、マージで上書きされることはない
type JournalPatch struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// Apply はパッチを既存ジャーナルにフィールド単位でマージする
func (p *JournalPatch) Apply(j *Journal) {
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Content != nil {
		j.Content = *p.Content
	}
	if p.Tags != nil {
		j.Tags = *p.Tags
	}
}

// IsEmpty はパッチが1フィールドも持たないかを返す
func (p *JournalPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}
