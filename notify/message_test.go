package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationRequest_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		req     VerificationRequest
		wantErr error
	}{
		{"valid", VerificationRequest{Email: " a@b.co ", Code: " 123456 "}, nil},
		{"alphanumeric code", VerificationRequest{Email: "a@b.co", Code: "AB12cd"}, nil},
		{"missing email", VerificationRequest{Code: "123456"}, ErrInvalidEmail},
		{"display name form", VerificationRequest{Email: "Al <a@b.co>", Code: "123456"}, ErrInvalidEmail},
		{"short code", VerificationRequest{Email: "a@b.co", Code: "123"}, ErrInvalidCode},
		{"long code", VerificationRequest{Email: "a@b.co", Code: "1234567890123"}, ErrInvalidCode},
		{"punctuation", VerificationRequest{Email: "a@b.co", Code: "12-456"}, ErrInvalidCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Normalize()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@b.co", tt.req.Email)
		})
	}
}

func TestVerificationMessage(t *testing.T) {
	msg, err := VerificationMessage(VerificationRequest{Email: "a@b.co", Code: "4821", Username: "<Sam>"})
	require.NoError(t, err)

	assert.Equal(t, "a@b.co", msg.To)
	assert.Equal(t, "<Sam>", msg.ToName)
	assert.Equal(t, verificationSubject, msg.Subject)
	assert.Contains(t, msg.Text, "Hi <Sam>,")
	assert.Contains(t, msg.Text, "4821")
	assert.Contains(t, msg.HTML, "Hi &lt;Sam&gt;,")
	assert.Contains(t, msg.HTML, "4821")
}

func TestVerificationMessage_NoUsername(t *testing.T) {
	msg, err := VerificationMessage(VerificationRequest{Email: "a@b.co", Code: "4821"})
	require.NoError(t, err)

	assert.Empty(t, msg.ToName)
	assert.Contains(t, msg.Text, "Hi there,")
	assert.Contains(t, msg.HTML, "Hi there,")
}
