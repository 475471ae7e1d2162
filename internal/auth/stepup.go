package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"resto-system/internal/database/models"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

type StepUpMode string

const (
	StepUpNone   StepUpMode = "none"
	StepUpSecret StepUpMode = "secret"
	StepUpTOTP   StepUpMode = "totp"
)

// StepUpPolicy decides whether a role needs a second factor and checks it.
// Only admins are asked for one.
type StepUpPolicy struct {
	mode   StepUpMode
	secret string
	now    func() time.Time
}

func NewStepUpPolicy(mode, secret, totpSecret string) (*StepUpPolicy, error) {
	p := &StepUpPolicy{mode: StepUpMode(strings.ToLower(mode)), now: time.Now}
	switch p.mode {
	case "", StepUpNone:
		p.mode = StepUpNone
	case StepUpSecret:
		p.secret = secret
	case StepUpTOTP:
		p.secret = totpSecret
	default:
		return nil, fmt.Errorf("unknown step-up mode %q", mode)
	}
	if p.mode != StepUpNone && p.secret == "" {
		return nil, fmt.Errorf("step-up mode %s needs a secret", p.mode)
	}
	return p, nil
}

func (p *StepUpPolicy) Mode() StepUpMode {
	return p.mode
}

func (p *StepUpPolicy) Required(role models.Role) bool {
	return p.mode != StepUpNone && role == models.RoleAdmin
}

// Satisfied reports whether the principal may pass without further proof.
func (p *StepUpPolicy) Satisfied(pr Principal) bool {
	return !p.Required(pr.Role) || pr.SteppedUp
}

func (p *StepUpPolicy) Verify(code string) error {
	code = strings.TrimSpace(code)
	switch p.mode {
	case StepUpSecret:
		if subtle.ConstantTimeCompare([]byte(code), []byte(p.secret)) == 1 {
			return nil
		}
	case StepUpTOTP:
		ok, err := totp.ValidateCustom(code, p.secret, p.now(), totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err == nil && ok {
			return nil
		}
	default:
		return ErrStepUpDisabled
	}
	return ErrStepUpFailed
}
