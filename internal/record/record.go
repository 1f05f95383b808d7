// Package record defines the plaintext protected by an envelope and its
// versioned JSON schema.
//
// A Record is either single-target (one chain id and one content address) or
// multi-chain (an ordered chain map). The Kind field selects the variant and
// the Version field pins the schema, so old envelopes keep decoding after the
// format evolves.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

// SchemaVersion is written into every new record.
const SchemaVersion = 1

// Kind tags the record variant.
type Kind string

const (
	KindSingle     Kind = "single"
	KindMultiChain Kind = "multi_chain"
)

// ItemID is an opaque item identifier. On input it accepts both JSON strings
// and JSON integers; it is always written as a string.
type ItemID string

func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	if _, err := strconv.ParseInt(string(b), 10, 64); err != nil {
		return fmt.Errorf("item_id must be a string or an integer")
	}
	*id = ItemID(b)
	return nil
}

// Record is the plaintext protected by an envelope.
type Record struct {
	Version int
	Kind    Kind
	ItemID  ItemID

	// Single-target fields.
	ContentAddress string
	ChainID        int64

	// Multi-chain field.
	Chains ChainMap

	GeneratedAt time.Time
	ExpiresAt   time.Time
	Metadata    map[string]any
}

// NewSingle builds an unstamped single-target record.
func NewSingle(itemID, contentAddress string, chainID int64, metadata map[string]any) (Record, error) {
	r := Record{
		Version:        SchemaVersion,
		Kind:           KindSingle,
		ItemID:         ItemID(itemID),
		ContentAddress: contentAddress,
		ChainID:        chainID,
		Metadata:       cloneMetadata(metadata),
	}
	if err := r.validateIdentity(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return r, nil
}

// NewMultiChain builds an unstamped multi-chain record.
func NewMultiChain(itemID string, chains ChainMap, metadata map[string]any) (Record, error) {
	r := Record{
		Version:  SchemaVersion,
		Kind:     KindMultiChain,
		ItemID:   ItemID(itemID),
		Chains:   chains.Clone(),
		Metadata: cloneMetadata(metadata),
	}
	if err := r.validateIdentity(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return r, nil
}

// ChainCount is 1 for single-target records and the chain map size otherwise.
func (r Record) ChainCount() int {
	if r.Kind == KindMultiChain {
		return r.Chains.Len()
	}
	return 1
}

// HasChain reports whether the record targets chainID.
func (r Record) HasChain(chainID int64) bool {
	if r.Kind == KindMultiChain {
		_, ok := r.Chains.Get(chainID)
		return ok
	}
	return r.ChainID == chainID
}

// Validate checks the variant fields and the timestamps. A record whose
// expires_at precedes generated_at is invalid; an empty window is accepted
// here and rejected by CheckExpiry.
func (r Record) Validate() error {
	if r.Version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", r.Version)
	}
	if err := r.validateIdentity(); err != nil {
		return err
	}
	if r.GeneratedAt.IsZero() || r.ExpiresAt.IsZero() {
		return fmt.Errorf("missing timestamps")
	}
	if r.ExpiresAt.Before(r.GeneratedAt) {
		return fmt.Errorf("expires_at precedes generated_at")
	}
	return nil
}

func (r Record) validateIdentity() error {
	if r.ItemID == "" {
		return fmt.Errorf("item_id is required")
	}
	switch r.Kind {
	case KindSingle:
		if r.ContentAddress == "" {
			return fmt.Errorf("content_address is required")
		}
		if r.ChainID <= 0 {
			return fmt.Errorf("chain_id must be positive")
		}
		if r.Chains.Len() != 0 {
			return fmt.Errorf("single record must not carry a chain map")
		}
	case KindMultiChain:
		if r.Chains.Len() == 0 {
			return fmt.Errorf("chain_map must not be empty")
		}
		if r.ContentAddress != "" || r.ChainID != 0 {
			return fmt.Errorf("multi_chain record must not carry chain_id or content_address")
		}
		for _, e := range r.Chains.Entries() {
			if e.ChainID <= 0 {
				return fmt.Errorf("chain_map key %d must be positive", e.ChainID)
			}
			if e.ContentAddress == "" {
				return fmt.Errorf("chain_map entry %d has an empty content address", e.ChainID)
			}
		}
	default:
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	return nil
}

type wireRecord struct {
	Version        int            `json:"v"`
	Kind           Kind           `json:"kind"`
	ItemID         ItemID         `json:"item_id"`
	ContentAddress string         `json:"content_address,omitempty"`
	ChainID        int64          `json:"chain_id,omitempty"`
	ChainMap       *ChainMap      `json:"chain_map,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON writes the wire schema without validating.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		Version:        r.Version,
		Kind:           r.Kind,
		ItemID:         r.ItemID,
		ContentAddress: r.ContentAddress,
		ChainID:        r.ChainID,
		GeneratedAt:    r.GeneratedAt.UTC(),
		ExpiresAt:      r.ExpiresAt.UTC(),
		Metadata:       r.Metadata,
	}
	if r.Kind == KindMultiChain {
		chains := r.Chains
		w.ChainMap = &chains
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire schema without validating.
func (r *Record) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Record{
		Version:        w.Version,
		Kind:           w.Kind,
		ItemID:         w.ItemID,
		ContentAddress: w.ContentAddress,
		ChainID:        w.ChainID,
		GeneratedAt:    w.GeneratedAt,
		ExpiresAt:      w.ExpiresAt,
		Metadata:       w.Metadata,
	}
	if w.ChainMap != nil {
		r.Chains = *w.ChainMap
	}
	return nil
}

// Marshal validates r and serializes it.
func Marshal(r Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return json.Marshal(r)
}

// Unmarshal parses and validates a serialized record. Every failure wraps
// common.ErrCorruptRecord.
func Unmarshal(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	if err := r.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	return r, nil
}

func cloneMetadata(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
