package auth

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const mfaIssuer = "PTO Info"

// MFAKey is a freshly generated TOTP seed and its provisioning URL.
type MFAKey struct {
	Secret string
	URL    string
}

func GenerateMFAKey(accountName string) (MFAKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFAKey{}, goerr.Wrap(err, "failed to generate totp key", goerr.V("account", accountName))
	}
	return MFAKey{Secret: key.Secret(), URL: key.URL()}, nil
}

func ValidateMFACode(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
