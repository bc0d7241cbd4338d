package chat

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractSystemPrompt(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}

	remaining, systemPrompt, found := ExtractSystemPrompt(messages)
	if !found {
		t.Fatal("expected system prompt to be found")
	}
	if systemPrompt != "be helpful" {
		t.Errorf("expected 'be helpful', got %q", systemPrompt)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining messages, got %d", len(remaining))
	}
	if remaining[0].Role != RoleUser || remaining[1].Role != RoleAssistant {
		t.Errorf("unexpected remaining order: %+v", remaining)
	}
}

func TestExtractSystemPrompt_LastSystemWins(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "first"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "second"},
	}

	remaining, systemPrompt, found := ExtractSystemPrompt(messages)
	if !found || systemPrompt != "second" {
		t.Errorf("expected last system message to win, got %q", systemPrompt)
	}
	if len(remaining) != 1 {
		t.Errorf("expected 1 remaining message, got %d", len(remaining))
	}
}

func TestExtractSystemPrompt_Idempotent(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "prompt"},
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	}

	remaining, _, _ := ExtractSystemPrompt(messages)
	again, systemPrompt, found := ExtractSystemPrompt(remaining)

	if found || systemPrompt != "" {
		t.Errorf("expected no system prompt on second pass, got %q", systemPrompt)
	}
	if len(again) != len(remaining) {
		t.Fatalf("expected same length, got %d vs %d", len(again), len(remaining))
	}
	for i := range again {
		if !reflect.DeepEqual(again[i], remaining[i]) {
			t.Errorf("message %d changed: %+v vs %+v", i, again[i], remaining[i])
		}
	}
}

func TestMergeConsecutive(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "one"},
		{Role: RoleUser, Content: "two"},
		{Role: RoleAssistant, Content: "three"},
		{Role: RoleUser, Content: "four"},
		{Role: RoleUser, Content: "five"},
		{Role: RoleUser, Content: "six"},
	}

	merged := MergeConsecutive(messages)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged messages, got %d", len(merged))
	}
	if merged[0].Content != "one\ntwo" {
		t.Errorf("unexpected first merge: %q", merged[0].Content)
	}
	if merged[2].Content != "four\nfive\nsix" {
		t.Errorf("unexpected last merge: %q", merged[2].Content)
	}

	// Нет двух соседних сообщений одной роли.
	for i := 1; i < len(merged); i++ {
		if merged[i].Role == merged[i-1].Role {
			t.Errorf("adjacent messages %d and %d share role %q", i-1, i, merged[i].Role)
		}
	}

	// Суммарное содержимое не потеряно.
	var before, after strings.Builder
	for _, m := range messages {
		before.WriteString(m.Content)
	}
	for _, m := range merged {
		after.WriteString(strings.ReplaceAll(m.Content, "\n", ""))
	}
	if before.String() != after.String() {
		t.Errorf("content changed: %q vs %q", before.String(), after.String())
	}
}

func TestMergeConsecutive_DoesNotMutateInput(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "one"},
		{Role: RoleUser, Content: "two"},
	}

	_ = MergeConsecutive(messages)
	if messages[0].Content != "one" {
		t.Errorf("input mutated: %q", messages[0].Content)
	}
}

func TestMergeConsecutive_Empty(t *testing.T) {
	if merged := MergeConsecutive(nil); len(merged) != 0 {
		t.Errorf("expected empty result, got %d", len(merged))
	}
}

func TestReplaceEmpty(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleUser, Content: "   \t"},
	}

	replaced := ReplaceEmpty(messages, "...")
	if replaced[0].Content != "hello" {
		t.Errorf("non-empty content changed: %q", replaced[0].Content)
	}
	if replaced[1].Content != "..." || replaced[2].Content != "..." {
		t.Errorf("empty content not replaced: %+v", replaced)
	}
	for i := range replaced {
		if replaced[i].Role != messages[i].Role {
			t.Errorf("role %d changed: %q vs %q", i, replaced[i].Role, messages[i].Role)
		}
	}
	// Исходный срез не тронут.
	if messages[1].Content != "" {
		t.Errorf("input mutated: %q", messages[1].Content)
	}
}
