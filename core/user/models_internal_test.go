package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPassword(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantLen int
	}{
		{name: "generated for new users", n: generatedPasswordLen, wantLen: generatedPasswordLen},
		{name: "long", n: 32, wantLen: 32},
		{name: "too short", n: 2, wantLen: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				pwd, err := RandomPassword(tt.n)
				require.NoError(t, err)
				require.Len(t, pwd, tt.wantLen)

				assert.True(t, strings.ContainsAny(pwd, passwordLower), pwd)
				assert.True(t, strings.ContainsAny(pwd, passwordUpper), pwd)
				assert.True(t, strings.ContainsAny(pwd, passwordDigits), pwd)
				assert.True(t, strings.ContainsAny(pwd, passwordSymbols), pwd)
				for _, c := range pwd {
					require.True(t, strings.ContainsRune(passwordChars, c), pwd)
				}
				if tt.wantLen >= pwdMinLen {
					assert.Empty(t, passwordPolicyViolation(pwd), pwd)
				}
			}
		})
	}
}
