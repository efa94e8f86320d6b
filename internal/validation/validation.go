// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

// IsValidPhone проверяет номер телефона: необязательный «+» и от 10 до 15 цифр.
func IsValidPhone(phone string) bool {
	phone = strings.TrimPrefix(phone, "+")
	if len(phone) < 10 || len(phone) > 15 {
		return false
	}
	return allDigits(phone)
}

// IsValidPincode проверяет почтовый индекс из шести цифр. Пустой индекс допустим.
func IsValidPincode(pincode string) bool {
	if pincode == "" {
		return true
	}
	return len(pincode) == 6 && allDigits(pincode)
}

// IsValidSKU проверяет артикул: латинские буквы, цифры, «-» и «_», не длиннее 64 символов.
func IsValidSKU(sku string) bool {
	if sku == "" || len(sku) > 64 {
		return false
	}

	for _, ch := range sku {
		if ch > unicode.MaxASCII {
			return false
		}
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' && ch != '_' {
			return false
		}
	}

	return true
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return len(password) >= 6 && len(password) <= 72
}

func allDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
