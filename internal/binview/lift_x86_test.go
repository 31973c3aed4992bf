package binview

import "testing"

func TestX86Mnemonic(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"mov eax, 0x1", "mov"},
		{"ret", "ret"},
		{"rep stosq qword ptr [rdi], rax", "rep stosq"},
		{"repne scasb al, byte ptr [rdi]", "repne scasb"},
		{"repe cmpsb byte ptr [rsi], byte ptr [rdi]", "repe cmpsb"},
		{"lock xchg dword ptr [rax], ecx", "lock xchg"},
		// A bare prefix with nothing after it stays as-is.
		{"rep", "rep"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := x86Mnemonic(tt.text); got != tt.want {
			t.Errorf("x86Mnemonic(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
