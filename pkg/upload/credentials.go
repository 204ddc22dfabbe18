// Package upload is the thin adapter to the file-upload provider: it
// fetches presigned upload credentials through the gateway. The upload
// transport itself belongs to the provider's widget, not this client.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scribehq/scribe-client/pkg/envelope"
)

// ErrNoCredentials is returned when the backend reply carries no usable
// credential payload.
var ErrNoCredentials = errors.New("no upload credentials in response")

// Credentials authorize one direct upload to the provider.
type Credentials struct {
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	Key       string `json:"key"`
}

// Valid reports whether the credentials are usable.
func (c Credentials) Valid() bool {
	return c.Signature != "" && c.Key != ""
}

// Source produces fresh upload credentials.
type Source func(ctx context.Context) (Credentials, error)

// Gateway is the request surface the adapter needs. *client.Client
// satisfies it.
type Gateway interface {
	Get(ctx context.Context, endpoint string) envelope.Envelope
}

// NewGatewaySource returns a Source that fetches credentials from a
// backend endpoint and decodes them out of the envelope.
func NewGatewaySource(gw Gateway, endpoint string) Source {
	return func(ctx context.Context) (Credentials, error) {
		env := gw.Get(ctx, endpoint)
		if !env.OK() {
			return Credentials{}, fmt.Errorf("fetch upload credentials: %w", env.Failure)
		}

		var creds Credentials
		if len(env.Success.Data) > 0 {
			if err := json.Unmarshal(env.Success.Data, &creds); err != nil {
				return Credentials{}, fmt.Errorf("decode upload credentials: %w", err)
			}
		}
		if !creds.Valid() {
			return Credentials{}, ErrNoCredentials
		}
		return creds, nil
	}
}
