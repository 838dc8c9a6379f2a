// Package ptype implements the semantic PII types a collection field can
// declare, and their rendering in the supported protection formats.
//
// Every type renders a "plain" form (the canonical string representation of
// the stored value) and a "masked" form. Masked forms are deterministic and
// reveal at most a structurally meaningful prefix; they can never be used to
// reconstruct the plain value.
package ptype

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/retgits/creditcard"
)

var ErrNotSupported = errors.New("notsupported")
var ErrValidation = errors.New("invalid")

type TypeName string

const (
	StringType      TypeName = "string"
	NameType        TypeName = "name"
	EmailType       TypeName = "email"
	PhoneNumberType TypeName = "phone_number"
	AddressType     TypeName = "address"
	CreditCardType  TypeName = "credit_card"
	CVVType         TypeName = "cvv"
	ExpiryType      TypeName = "expiry"
)

const (
	PlainFormat  = "plain"
	MaskedFormat = "masked"
)

// Value is a parsed field value that can render itself in a requested format.
type Value interface {
	Get(format string) (string, error)
}

// phoneMaskPrefix is the number of leading characters of the plain rendering
// a masked phone number preserves (sign, country code and area prefix).
const phoneMaskPrefix = 5

// cardMaskPrefix is the number of leading card digits a masked card number
// preserves (the issuer BIN).
const cardMaskPrefix = 6

type String struct {
	val string
}

func (s String) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return s.val, nil
	case MaskedFormat:
		return allStars(s.val), nil
	default:
		return "", ErrNotSupported
	}
}

type Name struct {
	val string
}

func (n Name) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return n.val, nil
	case MaskedFormat:
		return n.getMasked(), nil
	default:
		return "", ErrNotSupported
	}
}

func (n Name) getMasked() string {
	words := strings.Split(n.val, " ")
	masked := make([]string, len(words))
	for i, word := range words {
		masked[i] = allStars(word)
	}
	return strings.Join(masked, " ")
}

type Email struct {
	address mail.Address
}

func (em Email) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return em.getPlain(), nil
	case MaskedFormat:
		return em.getMasked(), nil
	default:
		return "", ErrNotSupported
	}
}

func (em Email) getPlain() string {
	raw := em.address.String()
	// mail.Address.String wraps the bare address in angle brackets
	return raw[1 : len(raw)-1]
}

func (em Email) getMasked() string {
	local, domain, _ := strings.Cut(em.getPlain(), "@")
	return allStars(local) + "@" + domain
}

type PhoneNumber struct {
	val *phonenumbers.PhoneNumber
}

func (pn PhoneNumber) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return phonenumbers.Format(pn.val, phonenumbers.E164), nil
	case MaskedFormat:
		return pn.getMasked(), nil
	default:
		return "", ErrNotSupported
	}
}

func (pn PhoneNumber) getMasked() string {
	plain := phonenumbers.Format(pn.val, phonenumbers.E164)
	return maskAfter(plain, phoneMaskPrefix)
}

type Address struct {
	val string
}

func (a Address) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return a.val, nil
	case MaskedFormat:
		return a.getMasked(), nil
	default:
		return "", ErrNotSupported
	}
}

func (a Address) getMasked() string {
	// Preserve the line/word structure, redact every character
	masked := []rune(a.val)
	for i, r := range masked {
		if r != ' ' && r != '\n' && r != ',' {
			masked[i] = '*'
		}
	}
	return string(masked)
}

type CreditCard struct {
	card creditcard.Card
}

func (c CreditCard) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return c.card.Number, nil
	case MaskedFormat:
		return maskAfter(c.card.Number, cardMaskPrefix), nil
	default:
		return "", ErrNotSupported
	}
}

type CVV struct {
	val string
}

func (c CVV) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return c.val, nil
	case MaskedFormat:
		// CVVs have no meaningful prefix; redact everything
		return "***", nil
	default:
		return "", ErrNotSupported
	}
}

type Expiry struct {
	val string
}

func (e Expiry) Get(format string) (string, error) {
	switch format {
	case PlainFormat:
		return e.val, nil
	case MaskedFormat:
		return "**/**", nil
	default:
		return "", ErrNotSupported
	}
}

func allStars(s string) string {
	return strings.Repeat("*", len(s))
}

// maskAfter keeps the first n characters of s verbatim and replaces the rest
// with stars. Values no longer than the prefix are fully redacted.
func maskAfter(s string, n int) string {
	if len(s) <= n {
		return allStars(s)
	}
	return s[:n] + strings.Repeat("*", len(s)-n)
}

var cardNumberRgx = regexp.MustCompile(`^[0-9][0-9 -]{10,22}[0-9]$`)
var cvvRgx = regexp.MustCompile(`^[0-9]{3,4}$`)
var expiryRgx = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2}|[0-9]{4})$`)

// Parse validates a raw value against a semantic type and returns the parsed
// Value. Parse is called on every write (so invalid values never reach the
// store) and on every read before rendering. Unknown types fall back to
// string.
func Parse(t TypeName, raw string) (Value, error) {
	switch t {
	case StringType:
		return String{raw}, nil
	case NameType:
		return Name{raw}, nil
	case EmailType:
		address, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, ErrValidation
		}
		return Email{*address}, nil
	case PhoneNumberType:
		parsed, err := phonenumbers.Parse(raw, "GB")
		if err != nil {
			return nil, ErrValidation
		}
		return PhoneNumber{parsed}, nil
	case AddressType:
		return Address{raw}, nil
	case CreditCardType:
		if !cardNumberRgx.MatchString(raw) {
			return nil, ErrValidation
		}
		card := creditcard.Card{Number: strings.NewReplacer(" ", "", "-", "").Replace(raw)}
		if !card.Validate().ValidCardNumber {
			return nil, ErrValidation
		}
		return CreditCard{card}, nil
	case CVVType:
		if !cvvRgx.MatchString(raw) {
			return nil, ErrValidation
		}
		return CVV{raw}, nil
	case ExpiryType:
		if !expiryRgx.MatchString(raw) {
			return nil, ErrValidation
		}
		return Expiry{raw}, nil
	default:
		return String{raw}, nil
	}
}

// Canonical returns the canonical plain rendering for a raw value, the form
// records store at rest (e.g. E.164 for phone numbers).
func Canonical(t TypeName, raw string) (string, error) {
	value, err := Parse(t, raw)
	if err != nil {
		return "", err
	}
	return value.Get(PlainFormat)
}

// Valid reports whether t is a known semantic type name.
func Valid(t TypeName) bool {
	switch t {
	case StringType, NameType, EmailType, PhoneNumberType, AddressType,
		CreditCardType, CVVType, ExpiryType:
		return true
	}
	return false
}

// ValidFormat reports whether format is a known rendering format.
func ValidFormat(format string) bool {
	return format == PlainFormat || format == MaskedFormat
}
