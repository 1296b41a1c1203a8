package macro

import "unicode"

// IsValidRegister reports whether r names a register: lowercase letters
// a-z and digits 0-9.
func IsValidRegister(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// NormalizeRegister folds uppercase letters to their lowercase register
// and returns 0 for anything that is not a register.
func NormalizeRegister(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return unicode.ToLower(r)
	}
	if IsValidRegister(r) {
		return r
	}
	return 0
}
