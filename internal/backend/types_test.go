// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStringList_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want StringList
	}{
		{"string", `"Good rapport"`, StringList{"Good rapport"}},
		{"blank string", `"  "`, nil},
		{"array", `["a","b"]`, StringList{"a", "b"}},
		{"empty array", `[]`, StringList{}},
		{"null", `null`, nil},
		{"mixed array", `["a",{"moment":"close"},3]`, StringList{"a", `{"moment":"close"}`, "3"}},
		{"number", `42`, StringList{"42"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got StringList
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tc.in, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Unmarshal(%s) = %#v, want %#v", tc.in, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestFeedback_Markdown(t *testing.T) {
	fb := &Feedback{
		Strengths:            StringList{"Clear opener"},
		Weaknesses:           StringList{"Rushed close", "No discovery"},
		RoleSpecificFeedback: StringList{"Stay calm under pressure."},
	}

	md := fb.Markdown()
	wantInOrder := []string{
		"## Strengths",
		"- Clear opener",
		"## Areas for Improvement",
		"- Rushed close",
		"- No discovery",
		"## Role-Specific Feedback",
		"Stay calm under pressure.",
	}

	pos := 0
	for _, want := range wantInOrder {
		idx := strings.Index(md[pos:], want)
		if idx < 0 {
			t.Fatalf("Markdown() missing %q after offset %d:\n%s", want, pos, md)
		}
		pos += idx + len(want)
	}
	if strings.Contains(md, "Key Moments") {
		t.Error("empty sections should be omitted")
	}
	if strings.Contains(md, "- Stay calm") {
		t.Error("role-specific feedback should be prose, not a bullet")
	}
}

func TestFeedback_ErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		fb   *Feedback
		want string
	}{
		{"nil feedback", nil, MsgNoFeedback},
		{"error field", &Feedback{Error: "Conversation too short"}, "Conversation too short"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.fb.Failed() {
				t.Fatal("Failed() = false, want true")
			}
			md := tc.fb.Markdown()
			if !strings.Contains(md, "Error:") || !strings.Contains(md, tc.want) {
				t.Errorf("Markdown() = %q, want error %q", md, tc.want)
			}
			if tc.fb.Sections() != nil {
				t.Error("Sections() should be nil for failed feedback")
			}
		})
	}
}

func TestFeedback_Empty(t *testing.T) {
	md := (&Feedback{}).Markdown()
	if !strings.Contains(md, "No feedback") {
		t.Errorf("Markdown() = %q", md)
	}
}
