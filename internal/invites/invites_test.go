package invites

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

var fixedNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

type fakeRecords struct {
	rows map[string][]gateway.Row

	selectErr error
	updateErr error

	selectCalls int
	updateCalls int
	insertCalls int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: map[string][]gateway.Row{}}
}

func matches(row gateway.Row, filter gateway.Filter) bool {
	for k, v := range filter {
		if row[k] != v {
			return false
		}
	}
	return true
}

func (f *fakeRecords) Select(ctx context.Context, table string, filter gateway.Filter) ([]gateway.Row, error) {
	f.selectCalls++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []gateway.Row
	for _, r := range f.rows[table] {
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) Insert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	f.insertCalls++
	f.rows[table] = append(f.rows[table], row)
	return row, nil
}

func (f *fakeRecords) Update(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) (gateway.Row, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for _, r := range f.rows[table] {
		if matches(r, filter) {
			for k, v := range patch {
				r[k] = v
			}
			return r, nil
		}
	}
	return nil, gateway.E(gateway.KindNotFound, "no matching row", nil)
}

func (f *fakeRecords) Upsert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	return row, nil
}

func (f *fakeRecords) Delete(ctx context.Context, table string, filter gateway.Filter) error {
	return nil
}

func newService(records gateway.Records) *Service {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	s := New(records, l)
	s.now = func() time.Time { return fixedNow }
	return s
}

func seedCode(records *fakeRecords, code, email string, expiresAt time.Time, used bool) {
	records.rows[codesTable] = append(records.rows[codesTable], gateway.Row{
		"id":         "inv-" + code,
		"code":       code,
		"email":      email,
		"expires_at": expiresAt,
		"used":       used,
	})
}

func TestValidateShortCodeSkipsStore(t *testing.T) {
	records := newFakeRecords()
	svc := newService(records)

	res := svc.Validate(context.Background(), "abc12")
	if res.Status != StatusInvalid {
		t.Fatalf("expected invalid, got %q", res.Status)
	}
	if records.selectCalls != 0 {
		t.Fatalf("expected zero store queries, got %d", records.selectCalls)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	records := newFakeRecords()
	svc := newService(records)

	res := svc.Validate(context.Background(), "ABCDEF")
	if res.Status != StatusInvalid {
		t.Fatalf("expected invalid, got %q", res.Status)
	}
}

func TestValidateExpiredCode(t *testing.T) {
	records := newFakeRecords()
	seedCode(records, "ABCDEF", "pro@example.com", fixedNow.Add(-time.Second), false)
	svc := newService(records)

	res := svc.Validate(context.Background(), "ABCDEF")
	if res.Status != StatusExpired {
		t.Fatalf("expected expired, got %q", res.Status)
	}
	if res.Status.Usable() {
		t.Fatal("expired code must not be usable")
	}
}

func TestValidateUsedCodeTreatedAsInvalid(t *testing.T) {
	records := newFakeRecords()
	seedCode(records, "ABCDEF", "pro@example.com", fixedNow.Add(time.Hour), true)
	svc := newService(records)

	res := svc.Validate(context.Background(), "ABCDEF")
	if res.Status != StatusInvalid {
		t.Fatalf("expected invalid, got %q", res.Status)
	}
}

func TestValidateGoodCodeSurfacesEmail(t *testing.T) {
	records := newFakeRecords()
	seedCode(records, "ABCDEF", "pro@example.com", fixedNow.Add(time.Hour), false)
	svc := newService(records)

	res := svc.Validate(context.Background(), "  ABCDEF  ")
	if res.Status != StatusValid {
		t.Fatalf("expected valid, got %q (%s)", res.Status, res.Message)
	}
	if res.Email != "pro@example.com" {
		t.Fatalf("expected invite email, got %q", res.Email)
	}
	if records.updateCalls != 0 {
		t.Fatal("validation must not mutate the store")
	}
}

func TestValidateTransportError(t *testing.T) {
	records := newFakeRecords()
	records.selectErr = gateway.E(gateway.KindUnavailable, "connection refused", nil)
	svc := newService(records)

	res := svc.Validate(context.Background(), "ABCDEF")
	if res.Status != StatusInvalid {
		t.Fatalf("expected invalid, got %q", res.Status)
	}
	if !strings.Contains(res.Message, "connection refused") {
		t.Fatalf("expected the error surfaced, got %q", res.Message)
	}
}

func TestConsumeMarksUsed(t *testing.T) {
	records := newFakeRecords()
	seedCode(records, "ABCDEF", "pro@example.com", fixedNow.Add(time.Hour), false)
	svc := newService(records)

	if err := svc.Consume(context.Background(), "ABCDEF", "u1"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	row := records.rows[codesTable][0]
	if row["used"] != true {
		t.Fatal("expected code marked used")
	}
	if row["used_by"] != "u1" {
		t.Fatalf("expected used_by u1, got %v", row["used_by"])
	}
}

// sqlRecords layers the production store's update pipeline over fakeRecords:
// the patch is applied first and the result row is read back afterwards, so a
// patched column no longer matches its pre-update filter value.
type sqlRecords struct {
	*fakeRecords
}

func (f *sqlRecords) Update(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) (gateway.Row, error) {
	f.updateCalls++
	var affected int
	for _, r := range f.rows[table] {
		if matches(r, filter) {
			for k, v := range patch {
				r[k] = v
			}
			affected++
		}
	}
	if affected == 0 {
		return nil, gateway.E(gateway.KindNotFound, "no matching row", nil)
	}
	key := gateway.Filter{}
	for k, v := range filter {
		if _, patched := patch[k]; !patched {
			key[k] = v
		}
	}
	rows, err := f.Select(ctx, table, key)
	if err != nil || len(rows) == 0 {
		return nil, gateway.E(gateway.KindNotFound, "row missing after update", err)
	}
	return rows[0], nil
}

// Consume patches the very column it filters on. Against a store that applies
// the patch before reading back, the first consumption must still succeed.
func TestConsumeAgainstUpdateThenReselectStore(t *testing.T) {
	records := newFakeRecords()
	seedCode(records, "ABCDEF", "pro@example.com", fixedNow.Add(time.Hour), false)
	svc := newService(&sqlRecords{records})

	if err := svc.Consume(context.Background(), "ABCDEF", "u1"); err != nil {
		t.Fatalf("first consume must succeed, got %v", err)
	}
	row := records.rows[codesTable][0]
	if row["used"] != true || row["used_by"] != "u1" {
		t.Fatalf("expected code marked used by u1, got %v", row)
	}

	err := svc.Consume(context.Background(), "ABCDEF", "u2")
	if !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("second consume must conflict, got %v", err)
	}
}

func TestConsumeAlreadyUsedIsConflict(t *testing.T) {
	records := newFakeRecords()
	seedCode(records, "ABCDEF", "pro@example.com", fixedNow.Add(time.Hour), true)
	svc := newService(records)

	err := svc.Consume(context.Background(), "ABCDEF", "u2")
	if !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIssueCreatesRow(t *testing.T) {
	records := newFakeRecords()
	svc := newService(records)

	invite, err := svc.Issue(context.Background(), "pro@example.com", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if invite.Email != "pro@example.com" {
		t.Fatalf("unexpected email %q", invite.Email)
	}
	if !invite.ExpiresAt.After(fixedNow) {
		t.Fatal("expected a future expiry")
	}
	if records.insertCalls != 1 {
		t.Fatalf("expected one insert, got %d", records.insertCalls)
	}
}
