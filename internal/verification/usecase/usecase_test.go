package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/kvstore"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type memStore struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
	}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.strings[key]
	if !ok {
		return "", kvstore.ErrNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strings[key] = value
	return nil
}

func (m *memStore) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.incrementLocked(key)
}

func (m *memStore) incrementLocked(key string) (int64, error) {
	var n int64
	if v, ok := m.strings[key]; ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	m.strings[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.strings, key)
		delete(m.hashes, key)
	}
	return nil
}

func (m *memStore) HashGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[string]string{}
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *memStore) HashSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hashSetLocked(key, fields)
	return nil
}

func (m *memStore) hashSetLocked(key string, fields map[string]string) {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
}

func (m *memStore) HashIncrement(_ context.Context, key, field string, by int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hashIncrementLocked(key, field, by)
}

func (m *memStore) hashIncrementLocked(key, field string, by int64) (int64, error) {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}

	var n int64
	if v, ok := h[field]; ok && v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n += by
	h[field] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.strings {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type memBatch struct {
	ops []func(*memStore)
}

func (b *memBatch) Set(key, value string, _ time.Duration) {
	b.ops = append(b.ops, func(m *memStore) { m.strings[key] = value })
}

func (b *memBatch) HashSet(key string, fields map[string]string) {
	b.ops = append(b.ops, func(m *memStore) { m.hashSetLocked(key, fields) })
}

func (b *memBatch) HashIncrement(key, field string, by int64) {
	b.ops = append(b.ops, func(m *memStore) { m.hashIncrementLocked(key, field, by) }) //nolint:errcheck
}

func (b *memBatch) Delete(keys ...string) {
	b.ops = append(b.ops, func(m *memStore) {
		for _, key := range keys {
			delete(m.strings, key)
			delete(m.hashes, key)
		}
	})
}

func (m *memStore) Atomic(_ context.Context, fn func(b kvstore.Batch)) error {
	batch := &memBatch{}
	fn(batch)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range batch.ops {
		op(m)
	}
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeProvider struct {
	delivered bool
	lastCode  string
	lastTo    string
}

func (p *fakeProvider) Send(_ context.Context, identifier, code string) entity.DeliveryResult {
	p.lastTo = identifier
	p.lastCode = code
	return entity.DeliveryResult{Delivered: p.delivered, ProviderRef: "fake"}
}

type fixedCodeGen struct {
	code string
}

func (g fixedCodeGen) Generate() (string, error) { return g.code, nil }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "ref-0001" }

type stubConfig struct {
	config.Config
	seconds map[string]time.Duration
	int64s  map[string]int64
}

func (c stubConfig) GetSecond(key string) time.Duration { return c.seconds[key] }
func (c stubConfig) GetInt64(key string) int64          { return c.int64s[key] }

type fixture struct {
	uc       *Usecase
	store    *memStore
	clock    *fakeClock
	provider *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	store := newMemStore()
	clk := &fakeClock{now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
	prov := &fakeProvider{delivered: true}

	uc := New(Dependency{
		Store:     store,
		Provider:  prov,
		Validator: v10,
		Config: stubConfig{
			seconds: map[string]time.Duration{"modules.verification.otp.expiry_seconds": 5 * time.Minute},
			int64s:  map[string]int64{"modules.verification.otp.max_attempts": 3},
		},
		HMAC:       hash.NewHMACSHA256("test-secret"),
		CodeGen:    fixedCodeGen{code: "123456"},
		UUID:       fixedUUID{},
		Clock:      clk,
		Instrument: instrument.NewNoop(),
	})

	return &fixture{uc: uc, store: store, clock: clk, provider: prov}
}

func (f *fixture) createKey(t *testing.T, clientID string, limit int64) string {
	t.Helper()

	out, err := f.uc.KeyCreate(context.Background(), KeyCreateInput{ClientID: clientID, MonthlyLimit: limit})
	if err != nil {
		t.Fatalf("create key for %s: %v", clientID, err)
	}
	return out.RawKey
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	var goErr *goerror.Error
	if !errors.As(err, &goErr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if goErr.Code() != want {
		t.Fatalf("expected code %s, got %s (message %q)", want, goErr.Code(), goErr.Msg())
	}
}

func TestKeyCreateAndAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	if !strings.HasPrefix(raw, "sk_") || len(raw) != 51 {
		t.Fatalf("unexpected raw key shape: %q", raw)
	}

	out, err := f.uc.Authorize(ctx, raw)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if out.ClientID != "acme-corp" {
		t.Fatalf("expected client acme-corp, got %q", out.ClientID)
	}
}

func TestKeyCreateDuplicateClientID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createKey(t, "acme-corp", 100)

	_, err := f.uc.KeyCreate(ctx, KeyCreateInput{ClientID: "acme-corp", MonthlyLimit: 50})
	assertCode(t, err, goerror.CodeConflict)
}

func TestKeyCreateRejectsBadClientID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, clientID := range []string{"", "A", "-starts-with-dash", "Has Spaces", "UPPER"} {
		if _, err := f.uc.KeyCreate(ctx, KeyCreateInput{ClientID: clientID}); err == nil {
			t.Fatalf("expected validation error for client id %q", clientID)
		}
	}
}

func TestAuthorizeMalformedSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, raw := range []string{"", "sk_short", "not-a-key", "sk_" + strings.Repeat("Z", 48)} {
		_, err := f.uc.Authorize(ctx, raw)
		assertCode(t, err, goerror.CodeInvalidFormat)
	}
}

func TestAuthorizeUnknownSecret(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Authorize(context.Background(), "sk_"+strings.Repeat("ab", 24))
	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestAuthorizePausedKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	paused := entity.KeyStatusPaused
	if err := f.uc.KeyUpdate(ctx, KeyUpdateInput{ClientID: "acme-corp", Status: &paused}); err != nil {
		t.Fatalf("pause key: %v", err)
	}

	_, err := f.uc.Authorize(ctx, raw)
	assertCode(t, err, goerror.CodeForbidden)

	active := entity.KeyStatusActive
	if err := f.uc.KeyUpdate(ctx, KeyUpdateInput{ClientID: "acme-corp", Status: &active}); err != nil {
		t.Fatalf("reactivate key: %v", err)
	}
	if _, err := f.uc.Authorize(ctx, raw); err != nil {
		t.Fatalf("authorize after reactivation: %v", err)
	}
}

func TestQuotaExhaustionAndLimitRaise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 2)

	for i := 0; i < 2; i++ {
		if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}

	_, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"})
	assertCode(t, err, goerror.CodeTooManyRequest)

	higher := int64(5)
	if err := f.uc.KeyUpdate(ctx, KeyUpdateInput{ClientID: "acme-corp", MonthlyLimit: &higher}); err != nil {
		t.Fatalf("raise limit: %v", err)
	}

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("send after limit raise: %v", err)
	}
}

func TestQuotaZeroLimitDeniesFirstSend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 0)

	_, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"})
	assertCode(t, err, goerror.CodeTooManyRequest)
}

func TestQuotaResetsOnNewMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 1)

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	_, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"})
	assertCode(t, err, goerror.CodeTooManyRequest)

	f.clock.now = f.clock.now.AddDate(0, 1, 0)

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("send after rollover: %v", err)
	}

	stats, err := f.uc.KeyStats(ctx, "acme-corp")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Key.Usage != 1 {
		t.Fatalf("expected usage 1 after rollover, got %d", stats.Key.Usage)
	}
	if stats.Key.PeriodStart != "2026-04" {
		t.Fatalf("expected period 2026-04, got %q", stats.Key.PeriodStart)
	}
	if stats.TotalGenerated != 2 {
		t.Fatalf("expected total generated 2 across periods, got %d", stats.TotalGenerated)
	}
}

func TestOtpSendAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	out, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "+15551234567"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.ReferenceID == "" {
		t.Fatal("expected a reference id")
	}
	if out.ExpiresIn != 5*time.Minute {
		t.Fatalf("expected 5m expiry, got %s", out.ExpiresIn)
	}
	if f.provider.lastCode != "123456" {
		t.Fatalf("provider received code %q", f.provider.lastCode)
	}

	if err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "+15551234567", Code: "123456"}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// The challenge is single-use.
	err = f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "+15551234567", Code: "123456"})
	assertCode(t, err, goerror.CodeGone)
}

func TestOtpVerifyWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "000000"})
	assertCode(t, err, goerror.CodeInvalidFormat)

	// A failed attempt does not consume the challenge.
	if err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "123456"}); err != nil {
		t.Fatalf("verify after wrong guess: %v", err)
	}
}

func TestOtpVerifyLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "000000"})
		assertCode(t, err, goerror.CodeInvalidFormat)
	}

	// The attempt that crosses the limit is rejected even with the right code.
	err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "123456"})
	assertCode(t, err, goerror.CodeTooManyRequest)

	// Lockout destroyed the challenge.
	err = f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "123456"})
	assertCode(t, err, goerror.CodeGone)
}

func TestOtpSendOverwritesPriorChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	for i := 0; i < 2; i++ {
		err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "000000"})
		assertCode(t, err, goerror.CodeInvalidFormat)
	}

	// Re-issuing resets the attempts counter along with the code.
	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"}); err != nil {
		t.Fatalf("second send: %v", err)
	}
	for i := 0; i < 3; i++ {
		err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "000000"})
		assertCode(t, err, goerror.CodeInvalidFormat)
	}
}

func TestOtpSendDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)
	f.provider.delivered = false

	_, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "user@example.com"})
	assertCode(t, err, goerror.CodeUnavailable)

	// A failed delivery is not charged against the quota.
	stats, err := f.uc.KeyStats(ctx, "acme-corp")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Key.Usage != 0 || stats.TotalGenerated != 0 {
		t.Fatalf("expected no charge, got usage=%d total=%d", stats.Key.Usage, stats.TotalGenerated)
	}
}

func TestOtpSendRejectsBadIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	for _, identifier := range []string{"", "15551234567", "+0123", "not-an-email", "user@", "@example.com"} {
		if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: identifier}); err == nil {
			t.Fatalf("expected validation error for identifier %q", identifier)
		}
	}
}

func TestOtpIdentifierNormalization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	if _, err := f.uc.OtpSend(ctx, OtpSendInput{RawKey: raw, Identifier: "User@Example.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Case differences address the same challenge.
	if err := f.uc.OtpVerify(ctx, OtpVerifyInput{RawKey: raw, Identifier: "user@example.com", Code: "123456"}); err != nil {
		t.Fatalf("verify with lowercased identifier: %v", err)
	}
}

func TestKeyRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := f.createKey(t, "acme-corp", 100)

	if err := f.uc.KeyRevoke(ctx, "acme-corp"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, err := f.uc.Authorize(ctx, raw)
	assertCode(t, err, goerror.CodeUnauthorized)

	err = f.uc.KeyRevoke(ctx, "acme-corp")
	assertCode(t, err, goerror.CodeNotFound)

	// The client id is free for reuse after revocation.
	if _, err := f.uc.KeyCreate(ctx, KeyCreateInput{ClientID: "acme-corp", MonthlyLimit: 10}); err != nil {
		t.Fatalf("recreate after revoke: %v", err)
	}
}

func TestKeyUpdateUnknownClient(t *testing.T) {
	f := newFixture(t)

	limit := int64(10)
	err := f.uc.KeyUpdate(context.Background(), KeyUpdateInput{ClientID: "ghost", MonthlyLimit: &limit})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestKeyList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createKey(t, "zeta-corp", 10)
	f.createKey(t, "acme-corp", 20)

	// A record that fails to deserialize is skipped, not surfaced.
	if err := f.store.HashSet(ctx, apiKeyPrefix+"garbage", map[string]string{"status": "active"}); err != nil {
		t.Fatalf("seed malformed record: %v", err)
	}

	out, err := f.uc.KeyList(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(out.Keys))
	}
	if out.Keys[0].ClientID != "acme-corp" || out.Keys[1].ClientID != "zeta-corp" {
		t.Fatalf("expected sorted client ids, got %q %q", out.Keys[0].ClientID, out.Keys[1].ClientID)
	}
}

func TestKeyStatsUnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.KeyStats(context.Background(), "ghost")
	assertCode(t, err, goerror.CodeNotFound)
}

func TestChargeUsageUnknownClientIsNoop(t *testing.T) {
	f := newFixture(t)

	if err := f.uc.ChargeUsage(context.Background(), "ghost"); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"User@Example.com", "user@example.com"},
		{"  user@example.com ", "user@example.com"},
		{"+15551234567", "15551234567"},
		{"+1 (555) 123-4567", "15551234567"},
	}
	for _, tc := range cases {
		if got := sanitizeIdentifier(tc.in); got != tc.want {
			t.Errorf("sanitizeIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
