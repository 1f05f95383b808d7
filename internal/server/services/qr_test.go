package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/imagestore"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	err    error
	mintID string
	png    []byte
}

func (f *fakePublisher) Put(ctx context.Context, mintID string, png []byte) (*imagestore.Stored, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mintID, f.png = mintID, png
	return &imagestore.Stored{Key: "qr/" + mintID + ".png", URL: "http://get/" + mintID}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	mints    []string
	verifies []string
	scans    []string
	images   []error
}

func (o *recordingObserver) ObserveMint(kind string, _ int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mints = append(o.mints, kind+"/"+common.Classify(err))
}

func (o *recordingObserver) ObserveVerify(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verifies = append(o.verifies, common.Classify(err))
}

func (o *recordingObserver) ObserveScan(valid bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil && !valid {
		o.scans = append(o.scans, "mismatch")
		return
	}
	o.scans = append(o.scans, common.Classify(err))
}

func (o *recordingObserver) ObserveImagePublish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.images = append(o.images, err)
}

func newTestService(t *testing.T, p Publisher) (*QRService, *recordingObserver) {
	t.Helper()
	key := make([]byte, 32)
	c, err := codec.New(key, key, codec.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	obs := &recordingObserver{}
	return NewQRService(c, p, obs, logging.Nop{}, 30*time.Minute, 120), obs
}

func TestQRService_MintSingle(t *testing.T) {
	svc, obs := newTestService(t, nil)

	res, err := svc.Mint(context.Background(), MintRequest{ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 80002})
	require.NoError(t, err)

	assert.Equal(t, record.KindSingle, res.Kind)
	assert.Equal(t, t0.Add(30*time.Minute), res.ExpiresAt, "service default ttl")
	assert.Empty(t, res.ImageBase64)
	assert.Nil(t, res.Image)
	assert.Equal(t, []string{"single/ok"}, obs.mints)
}

func TestQRService_MintTTLOverride(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ttl := 5 * time.Minute

	res, err := svc.Mint(context.Background(), MintRequest{ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 1, TTL: &ttl})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(ttl), res.ExpiresAt)
}

func TestQRService_MintMultiChainWithImage(t *testing.T) {
	svc, obs := newTestService(t, nil)
	chains, err := record.NewChainMap(
		record.ChainEntry{ChainID: 1, ContentAddress: "cidA"},
		record.ChainEntry{ChainID: 2, ContentAddress: "cidB"},
	)
	require.NoError(t, err)

	res, err := svc.Mint(context.Background(), MintRequest{ItemID: "P1", Chains: chains, WithImage: true})
	require.NoError(t, err)

	assert.Equal(t, record.KindMultiChain, res.Kind)
	assert.Equal(t, 2, res.ChainCount)
	assert.NotEmpty(t, res.ImageBase64)
	assert.Equal(t, 120, res.ImageSizePx, "service default size")
	assert.Equal(t, []string{"multi_chain/ok"}, obs.mints)
}

func TestQRService_MintRejectsMixedTargets(t *testing.T) {
	svc, obs := newTestService(t, nil)
	chains, err := record.NewChainMap(record.ChainEntry{ChainID: 1, ContentAddress: "cidA"})
	require.NoError(t, err)

	_, err = svc.Mint(context.Background(), MintRequest{ItemID: "P1", Chains: chains, ChainID: 5})
	assert.ErrorIs(t, err, common.ErrInvalidRecord)
	assert.Equal(t, []string{"/invalid_record"}, obs.mints)
}

func TestQRService_Publish(t *testing.T) {
	pub := &fakePublisher{}
	svc, obs := newTestService(t, pub)

	res, err := svc.Mint(context.Background(), MintRequest{ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 1, Publish: true})
	require.NoError(t, err)

	require.NotNil(t, res.Image)
	assert.Equal(t, res.ID, pub.mintID)
	assert.Equal(t, "http://get/"+res.ID, res.Image.URL)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), pub.png[:8])
	assert.Empty(t, res.ImageBase64, "inline image only when asked for")
	assert.Equal(t, []error{nil}, obs.images)
}

func TestQRService_PublishErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Mint(context.Background(), MintRequest{ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 1, Publish: true})
	assert.ErrorIs(t, err, common.ErrInvalidRecord)

	boom := errors.New("s3 down")
	svc, obs := newTestService(t, &fakePublisher{err: boom})
	_, err = svc.Mint(context.Background(), MintRequest{ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 1, Publish: true})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []error{boom}, obs.images)
}

func TestQRService_VerifyAndScan(t *testing.T) {
	ctx := context.Background()
	svc, obs := newTestService(t, nil)

	res, err := svc.Mint(ctx, MintRequest{ItemID: "Y", ContentAddress: "bafy123", ChainID: 80002})
	require.NoError(t, err)

	r, err := svc.Verify(ctx, res.Envelope)
	require.NoError(t, err)
	assert.Equal(t, record.ItemID("Y"), r.ItemID)

	_, err = svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrMalformedEnvelope)

	x := "X"
	chain := int64(80002)
	vr, err := svc.ValidateScan(ctx, ScanRequest{Envelope: res.Envelope, ExpectedItemID: &x, ExpectedChainID: &chain})
	require.NoError(t, err)
	assert.False(t, vr.Valid)
	assert.Equal(t, []string{codec.MsgItemIDMismatch}, vr.Errors)

	y := "Y"
	vr, err = svc.ValidateScan(ctx, ScanRequest{Envelope: res.Envelope, ExpectedItemID: &y})
	require.NoError(t, err)
	assert.True(t, vr.Valid)

	_, err = svc.ValidateScan(ctx, ScanRequest{Envelope: "aa:bb"})
	assert.ErrorIs(t, err, common.ErrMalformedEnvelope)

	assert.Equal(t, []string{"ok", "malformed_envelope"}, obs.verifies)
	assert.Equal(t, []string{"mismatch", "ok", "malformed_envelope"}, obs.scans)
}

func TestQRService_RenderPNG(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res, err := svc.Mint(context.Background(), MintRequest{ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 1})
	require.NoError(t, err)

	png, err := svc.RenderPNG(res.Envelope, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	_, err = svc.RenderPNG("x", 0)
	assert.ErrorIs(t, err, common.ErrMalformedEnvelope)
}

func TestQRService_MintRejectsImageSizeBeforeMinting(t *testing.T) {
	svc, obs := newTestService(t, nil)

	for _, size := range []int{-3, 5000} {
		_, err := svc.Mint(context.Background(), MintRequest{
			ItemID: "ITEM-1", ContentAddress: "bafy123", ChainID: 1, WithImage: true, ImageSizePx: size,
		})
		assert.ErrorIs(t, err, common.ErrInvalidRecord, size)
	}
	assert.Equal(t, []string{"/invalid_record", "/invalid_record"}, obs.mints)
}
