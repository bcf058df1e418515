// Package events decodes the lifecycle notifications a snap sends to the
// keyring and runs them through a single-writer pump.
//
// A Message is the raw {method, params} envelope. Decode validates it and
// returns one of the concrete Event types; anything else is rejected at the
// boundary, before the keyring sees it.
package events

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/address"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// Lifecycle event methods.
const (
	MethodAccountCreated  = "notify:accountCreated"
	MethodAccountUpdated  = "notify:accountUpdated"
	MethodAccountDeleted  = "notify:accountDeleted"
	MethodRequestApproved = "notify:requestApproved"
	MethodRequestRejected = "notify:requestRejected"
)

// Message is the envelope sent by a snap.
type Message struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Event is a decoded lifecycle event.
type Event interface {
	Method() string
}

// AccountCreated announces a new account.
type AccountCreated struct {
	Account               models.Account `json:"account"`
	AccountNameSuggestion string         `json:"accountNameSuggestion,omitempty"`
	DisplayConfirmation   *bool          `json:"displayConfirmation,omitempty"`
}

// AccountUpdated replaces an account's methods, type or options.
type AccountUpdated struct {
	Account models.Account `json:"account"`
}

// AccountDeleted announces that an account was removed by the snap.
type AccountDeleted struct {
	ID string `json:"id"`
}

// RequestApproved completes a pending request with a result.
type RequestApproved struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
}

// RequestRejected completes a pending request with a rejection.
type RequestRejected struct {
	ID string `json:"id"`
}

func (AccountCreated) Method() string  { return MethodAccountCreated }
func (AccountUpdated) Method() string  { return MethodAccountUpdated }
func (AccountDeleted) Method() string  { return MethodAccountDeleted }
func (RequestApproved) Method() string { return MethodRequestApproved }
func (RequestRejected) Method() string { return MethodRequestRejected }

// Decode validates msg and returns the matching event.
func Decode(msg Message) (Event, error) {
	switch msg.Method {
	case MethodAccountCreated:
		var ev AccountCreated
		if err := decodeParams(msg, &ev); err != nil {
			return nil, err
		}
		if err := validateAccount(msg.Method, ev.Account); err != nil {
			return nil, err
		}
		return ev, nil

	case MethodAccountUpdated:
		var ev AccountUpdated
		if err := decodeParams(msg, &ev); err != nil {
			return nil, err
		}
		if err := validateAccount(msg.Method, ev.Account); err != nil {
			return nil, err
		}
		return ev, nil

	case MethodAccountDeleted:
		var ev AccountDeleted
		if err := decodeParams(msg, &ev); err != nil {
			return nil, err
		}
		if err := validateUUID(msg.Method, "id", ev.ID); err != nil {
			return nil, err
		}
		return ev, nil

	case MethodRequestApproved:
		var ev RequestApproved
		if err := decodeParams(msg, &ev); err != nil {
			return nil, err
		}
		if err := validateUUID(msg.Method, "id", ev.ID); err != nil {
			return nil, err
		}
		if len(ev.Result) == 0 {
			return nil, kerr.Validation("%s: missing field \"result\"", msg.Method)
		}
		return ev, nil

	case MethodRequestRejected:
		var ev RequestRejected
		if err := decodeParams(msg, &ev); err != nil {
			return nil, err
		}
		if err := validateUUID(msg.Method, "id", ev.ID); err != nil {
			return nil, err
		}
		return ev, nil

	default:
		return nil, kerr.Unsupported("method not supported: %s", msg.Method)
	}
}

func decodeParams(msg Message, v any) error {
	if len(msg.Params) == 0 {
		return kerr.Validation("%s: missing params", msg.Method)
	}
	dec := json.NewDecoder(bytes.NewReader(msg.Params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return kerr.Validation("%s: invalid params: %v", msg.Method, err)
	}
	return nil
}

func validateAccount(method string, a models.Account) error {
	if err := validateUUID(method, "account.id", a.ID); err != nil {
		return err
	}
	if a.Type == "" {
		return kerr.Validation("%s: missing field \"account.type\"", method)
	}
	if a.Methods == nil {
		return kerr.Validation("%s: missing field \"account.methods\"", method)
	}
	for _, m := range a.Methods {
		if m == "" {
			return kerr.Validation("%s: empty method name in \"account.methods\"", method)
		}
	}
	if err := address.Validate(a.Type, a.Address); err != nil {
		return kerr.Validation("%s: %v", method, err)
	}
	return nil
}

func validateUUID(method, field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return kerr.Validation("%s: field %q must be a UUID, got %q", method, field, id)
	}
	return nil
}
