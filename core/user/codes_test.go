package user

import (
	"bytes"
	"strings"
	"testing"
)

func TestCodePrefix(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{role: RoleAdmin, want: "ADM"},
		{role: RoleTeacher, want: "TEA"},
		{role: RoleParent, want: "PAR"},
		{role: RoleStudent, want: "STU"},
		{role: RoleAccountant, want: "ACC"},
		{role: "ab", want: "AB"},
		{role: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := CodePrefix(tt.role); got != tt.want {
				t.Errorf("CodePrefix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_generateLoginCode(t *testing.T) {
	code, err := generateLoginCode(RoleStudent)
	if err != nil {
		t.Fatalf("generateLoginCode(): %v", err)
	}
	if len(code) != 3+codeSuffixLen {
		t.Errorf("generateLoginCode() len = %v, want %v", len(code), 3+codeSuffixLen)
	}
	if !strings.HasPrefix(code, "STU") {
		t.Errorf("generateLoginCode() = %v, want STU prefix", code)
	}
	for _, c := range []byte(code[3:]) {
		if !bytes.ContainsRune(codeAlphabet, rune(c)) {
			t.Errorf("generateLoginCode() = %v; %q not in alphabet", code, c)
		}
	}

	// a repeat draw should (practically) never collide
	code2, err := generateLoginCode(RoleStudent)
	if err != nil {
		t.Fatalf("generateLoginCode(): %v", err)
	}
	if code == code2 {
		t.Errorf("generateLoginCode() repeated: %v", code)
	}
}
