package model

import "testing"

func newTestJournal() *Journal {
	return &Journal{
		ID:        "j1",
		UserID:    "u1",
		Title:     "T",
		Content:   "C",
		Tags:      []string{"a"},
		CreatedAt: "2024-01-01T00:00:00Z",
	}
}

// TestJournalPatch_Apply_PartialMerge は指定フィールドのみが置き換わることをテスト
func TestJournalPatch_Apply_PartialMerge(t *testing.T) {
	journal := newTestJournal()

	newContent := "C2"
	patch := &JournalPatch{Content: &newContent}
	patch.Apply(journal)

	if journal.Content != "C2" {
		t.Errorf("expected content C2, got %s", journal.Content)
	}
	// 未指定フィールドは保持される
	if journal.Title != "T" {
		t.Errorf("expected title T preserved, got %s", journal.Title)
	}
	if journal.UserID != "u1" {
		t.Errorf("expected userId u1 preserved, got %s", journal.UserID)
	}
	if journal.CreatedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("expected createdAt preserved, got %s", journal.CreatedAt)
	}
	if len(journal.Tags) != 1 || journal.Tags[0] != "a" {
		t.Errorf("expected tags preserved, got %v", journal.Tags)
	}
}

// TestJournalPatch_Apply_AllFields は全フィールドの置き換えをテスト
func TestJournalPatch_Apply_AllFields(t *testing.T) {
	journal := newTestJournal()

	title := "T2"
	content := "C2"
	tags := []string{"x", "y"}
	patch := &JournalPatch{Title: &title, Content: &content, Tags: &tags}
	patch.Apply(journal)

	if journal.Title != "T2" || journal.Content != "C2" {
		t.Errorf("expected updated fields, got %+v", journal)
	}
	if len(journal.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", journal.Tags)
	}
}

// TestJournalPatch_Apply_EmptyStringIsValue は空文字列指定が「変更なし」ではなく
// 値の設定として扱われることをテスト
func TestJournalPatch_Apply_EmptyStringIsValue(t *testing.T) {
	journal := newTestJournal()

	empty := ""
	emptyTags := []string{}
	patch := &JournalPatch{Title: &empty, Tags: &emptyTags}
	patch.Apply(journal)

	if journal.Title != "" {
		t.Errorf("expected empty title, got %q", journal.Title)
	}
	if len(journal.Tags) != 0 {
		t.Errorf("expected empty tags, got %v", journal.Tags)
	}
}

// TestJournalPatch_IsEmpty は空パッチ判定をテスト
func TestJournalPatch_IsEmpty(t *testing.T) {
	patch := &JournalPatch{}
	if !patch.IsEmpty() {
		t.Error("expected empty patch")
	}

	title := "T"
	patch = &JournalPatch{Title: &title}
	if patch.IsEmpty() {
		t.Error("expected non-empty patch")
	}

	tags := []string{}
	patch = &JournalPatch{Tags: &tags}
	if patch.IsEmpty() {
		t.Error("expected patch with empty tags slice to be non-empty")
	}
}
