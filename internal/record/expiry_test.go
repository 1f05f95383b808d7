package record

import (
	"testing"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	var r Record
	local := t0.In(time.FixedZone("UTC+2", 2*3600))
	require.NoError(t, Stamp(&r, local, 60*time.Minute))

	assert.Equal(t, time.UTC, r.GeneratedAt.Location())
	assert.True(t, r.GeneratedAt.Equal(t0))
	assert.True(t, r.ExpiresAt.Equal(t0.Add(time.Hour)))
}

func TestStamp_NegativeTTL(t *testing.T) {
	var r Record
	assert.ErrorIs(t, Stamp(&r, t0, -time.Second), common.ErrInvalidRecord)
}

func TestCheckExpiry(t *testing.T) {
	var r Record
	require.NoError(t, Stamp(&r, t0, time.Hour))

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"at mint", t0, false},
		{"one minute before expiry", t0.Add(59 * time.Minute), false},
		{"exactly at expiry", t0.Add(time.Hour), true},
		{"61 minutes later", t0.Add(61 * time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExpiry(r, tt.now)
			if tt.expired {
				assert.ErrorIs(t, err, common.ErrExpired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckExpiry_ZeroTTL(t *testing.T) {
	var r Record
	require.NoError(t, Stamp(&r, t0, 0))
	assert.ErrorIs(t, CheckExpiry(r, t0.Add(-time.Minute)), common.ErrExpired)
}
