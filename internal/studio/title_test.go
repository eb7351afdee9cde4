package studio

import "testing"

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"", DefaultTitle},
		{"   \n\t ", DefaultTitle},
		{"sunset", "sunset"},
		{"a calm sunset over water", "a calm sunset over water"},
		{"a b c d e f", "a b c d e f"},
		{"a b c d e f g h", "a b c d e f"},
		{"  spaced   out    tokens  everywhere  in   this   prompt ", "spaced out tokens everywhere in this"},
	}
	for _, tt := range tests {
		if got := FallbackTitle(tt.prompt); got != tt.want {
			t.Errorf("FallbackTitle(%q) = %q, want %q", tt.prompt, got, tt.want)
		}
	}
}

func TestValidSizePerModel(t *testing.T) {
	if !ValidSize("sora-2", "1280x720") {
		t.Fatal("1280x720 should be valid for sora-2")
	}
	if ValidSize("sora-2", "1792x1024") {
		t.Fatal("1792x1024 is pro only")
	}
	if !ValidSize("sora-2-pro", "1792x1024") {
		t.Fatal("1792x1024 should be valid for sora-2-pro")
	}
	if ValidSize("unknown", "1280x720") {
		t.Fatal("unknown model has no sizes")
	}
	if !ValidModel("sora-2") || ValidModel("sora-3") {
		t.Fatal("model catalog mismatch")
	}
	if !ValidSeconds("8") || ValidSeconds("7") {
		t.Fatal("seconds catalog mismatch")
	}
}
