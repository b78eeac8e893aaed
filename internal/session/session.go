// Package session fetches temporary credentials from a credential service.
//
// The service answers a GET with a JSON document carrying a temporary secret
// id, secret key, session token and expiry. Both the flat layout and the
// layout nesting the secrets under "credentials" are accepted:
//
//	{"tmpSecretId": "...", "tmpSecretKey": "...", "sessionToken": "...", "expiredTime": 1767225600}
//	{"credentials": {"tmpSecretId": "...", ...}, "expiredTime": "1767225600"}
//
// expiredTime may be unix seconds (number or string) or an RFC 3339 time.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	client "github.com/mutablelogic/go-client"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// DefaultTimeout bounds a single credential request.
const DefaultTimeout = 15 * time.Second

// Fetcher retrieves session credentials from a fixed URL.
type Fetcher struct {
	url    string
	client *client.Client
}

// NewFetcher creates a Fetcher for url. Extra client options are appended
// after the endpoint and timeout.
func NewFetcher(url string, opts ...client.ClientOpt) (*Fetcher, error) {
	c, err := client.New(append([]client.ClientOpt{
		client.OptEndpoint(url),
		client.OptTimeout(DefaultTimeout),
	}, opts...)...)
	if err != nil {
		return nil, errors.NewError("sessionCredential", err).WithMessage("creating credential client")
	}
	return &Fetcher{url: url, client: c}, nil
}

// Fetch requests a new credential.
func (f *Fetcher) Fetch(ctx context.Context) (*transfertypes.SessionCredential, error) {
	var doc document
	if err := f.client.DoWithContext(ctx, client.NewRequest(), &doc); err != nil {
		return nil, errors.NewError("sessionCredential", err).WithMessage("requesting " + f.url)
	}
	return doc.credential()
}

type secrets struct {
	TmpSecretID  string `json:"tmpSecretId"`
	TmpSecretKey string `json:"tmpSecretKey"`
	SessionToken string `json:"sessionToken"`
}

type document struct {
	secrets
	Credentials *secrets        `json:"credentials"`
	ExpiredTime json.RawMessage `json:"expiredTime"`
}

func (d document) credential() (*transfertypes.SessionCredential, error) {
	s := d.secrets
	if d.Credentials != nil {
		s = *d.Credentials
	}
	if s.TmpSecretID == "" || s.TmpSecretKey == "" {
		return nil, errors.NewError("sessionCredential", errors.ErrInvalidCredentials).
			WithMessage("response has no temporary secret")
	}

	expires, err := parseExpiry(d.ExpiredTime)
	if err != nil {
		return nil, errors.NewError("sessionCredential", errors.ErrInvalidCredentials).
			WithMessage("malformed expiredTime")
	}

	return &transfertypes.SessionCredential{
		TmpSecretID:  s.TmpSecretID,
		TmpSecretKey: s.TmpSecretKey,
		SessionToken: s.SessionToken,
		ExpiredTime:  expires,
	}, nil
}

func parseExpiry(raw json.RawMessage) (time.Time, error) {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if value == "" || value == "null" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err //nolint:wrapcheck // wrapped by the caller
	}
	return t, nil
}
