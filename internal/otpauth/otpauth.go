// Package otpauth parses and builds otpauth:// provisioning URIs.
package otpauth

import (
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
)

const (
	Scheme   = "otpauth"
	TypeTOTP = "totp"
	TypeHOTP = "hotp"
)

// ErrInvalidFormat is wrapped by every Parse failure.
var ErrInvalidFormat = errors.New("invalid otpauth uri")

// Descriptor holds the fields read from a provisioning URI. Issuer and
// AccountName are empty when the URI does not carry them.
type Descriptor struct {
	Type        string `json:"type"`
	Secret      string `json:"secret"`
	Issuer      string `json:"issuer,omitempty"`
	AccountName string `json:"account_name,omitempty"`
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, reason)
}

// Parse reads an otpauth URI. Only the type, the secret and issuer query
// parameters and the label are consumed; digits, period and algorithm are
// accepted but ignored. The secret is returned verbatim.
func Parse(raw string) (*Descriptor, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if u.Scheme != Scheme {
		return nil, invalid("invalid scheme")
	}
	typ := u.Hostname()
	if typ != TypeTOTP && typ != TypeHOTP {
		return nil, invalid("invalid otp type")
	}

	q := queryValues(u.RawQuery)
	secret := q.Get("secret")
	if secret == "" {
		return nil, invalid("missing secret")
	}

	d := &Descriptor{Type: typ, Secret: secret}

	label := strings.TrimPrefix(u.Path, "/")
	labelIssuer, account, found := strings.Cut(label, ":")
	if found {
		d.AccountName = strings.TrimSpace(account)
	} else {
		labelIssuer = ""
		d.AccountName = label
	}

	d.Issuer = q.Get("issuer")
	if d.Issuer == "" {
		d.Issuer = labelIssuer
	}
	return d, nil
}

// queryValues splits a raw query on '&' only. url.ParseQuery drops any pair
// containing ';', which would lose secrets and issuers that carry one.
func queryValues(raw string) url.Values {
	v := url.Values{}
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		v.Add(unescape(key), unescape(value))
	}
	return v
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// Build renders d as a totp provisioning URI with the fixed parameters the
// generator uses. The label is "issuer:account" when an issuer is set. Parse
// splits the label at its first colon, so an issuer containing one travels only
// in the issuer parameter, and an account containing one always gets the
// separator, even with an empty prefix.
func Build(d Descriptor) string {
	prefix := d.Issuer
	if strings.Contains(prefix, ":") {
		prefix = ""
	}
	label := d.AccountName
	if prefix != "" || strings.Contains(label, ":") {
		label = prefix + ":" + label
	}
	typ := d.Type
	if typ == "" {
		typ = TypeTOTP
	}

	q := url.Values{}
	q.Set("secret", d.Secret)
	if d.Issuer != "" {
		q.Set("issuer", d.Issuer)
	}
	q.Set("algorithm", "SHA1")
	q.Set("digits", "6")
	q.Set("period", "30")

	u := url.URL{
		Scheme:   Scheme,
		Host:     typ,
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// QRCode renders the provisioning URI for d as a size x size QR image.
func QRCode(d Descriptor, size int) (image.Image, error) {
	key, err := otp.NewKeyFromURL(Build(d))
	if err != nil {
		return nil, fmt.Errorf("otpauth: build key: %w", err)
	}
	return key.Image(size, size)
}
