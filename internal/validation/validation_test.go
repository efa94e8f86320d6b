package validation

import "testing"

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{
			name:  "ten digits",
			phone: "9876543210",
			valid: true,
		},
		{
			name:  "international format",
			phone: "+919876543210",
			valid: true,
		},
		{
			name:  "too short",
			phone: "12345",
			valid: false,
		},
		{
			name:  "contains letters",
			phone: "98765abc10",
			valid: false,
		},
		{
			name:  "empty string",
			phone: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidPhone(tt.phone)
			if got != tt.valid {
				t.Fatalf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
			}
		})
	}
}

func TestIsValidPincode(t *testing.T) {
	tests := []struct {
		pincode string
		valid   bool
	}{
		{pincode: "411001", valid: true},
		{pincode: "", valid: true},
		{pincode: "4110", valid: false},
		{pincode: "41100a", valid: false},
	}

	for _, tt := range tests {
		if got := IsValidPincode(tt.pincode); got != tt.valid {
			t.Fatalf("IsValidPincode(%q) = %v, want %v", tt.pincode, got, tt.valid)
		}
	}
}

func TestIsValidSKU(t *testing.T) {
	tests := []struct {
		sku   string
		valid bool
	}{
		{sku: "CRD-AVT-100", valid: true},
		{sku: "dior_sauvage_50", valid: true},
		{sku: "", valid: false},
		{sku: "with space", valid: false},
		{sku: "ЯКОРЬ-1", valid: false},
	}

	for _, tt := range tests {
		if got := IsValidSKU(tt.sku); got != tt.valid {
			t.Fatalf("IsValidSKU(%q) = %v, want %v", tt.sku, got, tt.valid)
		}
	}
}

func TestIsValidPassword(t *testing.T) {
	if IsValidPassword("123") {
		t.Fatalf("short password must be rejected")
	}
	if !IsValidPassword("secret-pass") {
		t.Fatalf("regular password must be accepted")
	}
}
