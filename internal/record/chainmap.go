package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

// ChainEntry binds one chain id to a content address.
type ChainEntry struct {
	ChainID        int64
	ContentAddress string
}

// ChainMap is an insertion-ordered map of chain id to content address with
// unique keys. The zero value is an empty map ready to use.
type ChainMap struct {
	entries []ChainEntry
}

// NewChainMap builds a ChainMap from entries, keeping their order.
func NewChainMap(entries ...ChainEntry) (ChainMap, error) {
	var m ChainMap
	for _, e := range entries {
		if err := m.Set(e.ChainID, e.ContentAddress); err != nil {
			return ChainMap{}, err
		}
	}
	return m, nil
}

// Set appends a new chain id. Duplicate keys are rejected.
func (m *ChainMap) Set(chainID int64, contentAddress string) error {
	if _, ok := m.Get(chainID); ok {
		return fmt.Errorf("%w: duplicate chain id %d", common.ErrInvalidRecord, chainID)
	}
	m.entries = append(m.entries, ChainEntry{ChainID: chainID, ContentAddress: contentAddress})
	return nil
}

// Get returns the content address stored for chainID.
func (m ChainMap) Get(chainID int64) (string, bool) {
	for _, e := range m.entries {
		if e.ChainID == chainID {
			return e.ContentAddress, true
		}
	}
	return "", false
}

func (m ChainMap) Len() int { return len(m.entries) }

// Entries returns a copy of the entries in insertion order.
func (m ChainMap) Entries() []ChainEntry {
	out := make([]ChainEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m ChainMap) Clone() ChainMap {
	if m.entries == nil {
		return ChainMap{}
	}
	return ChainMap{entries: m.Entries()}
}

// MarshalJSON writes a JSON object whose keys appear in insertion order.
func (m ChainMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := strconv.Quote(strconv.FormatInt(e.ChainID, 10))
		val, err := json.Marshal(e.ContentAddress)
		if err != nil {
			return nil, err
		}
		buf.WriteString(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of decimal chain ids to strings,
// preserving document order and rejecting duplicate keys.
func (m *ChainMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("chain_map must be an object")
	}

	var out ChainMap
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("chain_map key %q is not an integer", key)
		}

		var addr string
		if err := dec.Decode(&addr); err != nil {
			return fmt.Errorf("chain_map value for %d: %w", id, err)
		}
		if err := out.Set(id, addr); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}
