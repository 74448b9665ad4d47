package hashing

import "testing"

func TestUnixCrypt(t *testing.T) {
	tests := []struct {
		name     string
		password string
		digest   string
		want     bool
	}{
		{
			name:     "valid password matches digest",
			password: "testpassword123",
			digest:   "tek4edTZE898g",
			want:     true,
		},
		{
			name:     "incorrect password with valid digest format",
			password: "wrongpassword",
			digest:   "tek4edTZE898g",
			want:     false,
		},
		{
			name:     "malformed digest",
			password: "testpassword123",
			digest:   "x",
			want:     false,
		},
		{
			name:     "empty digest",
			password: "testpassword123",
			digest:   "",
			want:     false,
		},
	}

	verifier := NewUnixCrypt()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifier.Verify(tt.password, tt.digest); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
