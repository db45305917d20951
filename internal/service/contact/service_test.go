package contact

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/repository/rowstore"
	"github.com/microlearning/site-api/internal/storage"
)

// callLog records the order in which collaborators were invoked.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

type mockRepo struct {
	log     *callLog
	records []domain.ContactRecord
	err     error
}

func (m *mockRepo) Append(ctx context.Context, rec domain.ContactRecord) (int, error) {
	m.log.add("append")
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.err != nil {
		return 0, m.err
	}
	m.records = append(m.records, rec)
	return domain.FirstDataRow + len(m.records) - 1, nil
}

type mockSender struct {
	log    *callLog
	sent   []domain.EmailRequest
	err    error
	onSend func()
}

func (m *mockSender) Send(_ context.Context, tmpl domain.EmailTemplate, req domain.EmailRequest) error {
	m.log.add("send:" + string(tmpl))
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, req)
	if m.onSend != nil {
		m.onSend()
	}
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestService(repoErr, sendErr error) (*Service, *mockRepo, *mockSender, *callLog) {
	log := &callLog{}
	repo := &mockRepo{log: log, err: repoErr}
	sender := &mockSender{log: log, err: sendErr}
	svc := NewService(repo, sender).WithClock(func() time.Time { return fixedNow })
	return svc, repo, sender, log
}

func TestSubmit_SendsBeforeStoring(t *testing.T) {
	svc, repo, sender, log := newTestService(nil, nil)

	res, err := svc.Submit(context.Background(), "Ann", "ann@x.io", "Hi")
	require.NoError(t, err)

	assert.Equal(t, []string{"send:confirmation", "append"}, log.calls)
	assert.True(t, res.Success)
	assert.True(t, res.EmailSent)
	assert.Equal(t, 2, res.RowIndex)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, domain.EmailRequest{To: "ann@x.io", Name: "Ann", Message: "Hi"}, sender.sent[0])

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, domain.FlagYes, rec.ConfirmationSent)
	assert.Equal(t, domain.Timestamp("2024-05-01T09:30:00.000Z"), rec.ConfirmationSentAt)
	assert.Equal(t, domain.Timestamp("2024-05-01T09:30:00.000Z"), rec.SubmittedAt)
	assert.Equal(t, domain.StatusConfirmed, rec.Status)
	assert.Equal(t, domain.FlagUnset, rec.ResendSent)
	assert.True(t, rec.ResendSentAt.IsZero())
}

func TestSubmit_EmailFailureStillStores(t *testing.T) {
	svc, repo, _, log := newTestService(nil, errors.New("provider down"))

	res, err := svc.Submit(context.Background(), "Ann", "ann@x.io", "Hi")
	require.NoError(t, err)

	assert.Equal(t, []string{"send:confirmation", "append"}, log.calls)
	assert.True(t, res.Success)
	assert.False(t, res.EmailSent)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, domain.FlagNo, rec.ConfirmationSent)
	assert.True(t, rec.ConfirmationSentAt.IsZero())
	assert.Equal(t, domain.StatusPending, rec.Status)
}

func TestSubmit_StoreFailure(t *testing.T) {
	svc, _, sender, _ := newTestService(domain.ErrStoreUnavailable, nil)

	_, err := svc.Submit(context.Background(), "Ann", "ann@x.io", "Hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	// The email already went out; nothing to roll back.
	assert.Len(t, sender.sent, 1)
}

func TestSubmit_ValidationHasNoSideEffects(t *testing.T) {
	long := strings.Repeat("é", MaxMessageLength+1)
	tests := []struct {
		name          string
		in            [3]string
		field, reason string
	}{
		{"missing name", [3]string{"", "ann@x.io", "Hi"}, "name", MsgMissingFields},
		{"blank name", [3]string{"   ", "ann@x.io", "Hi"}, "name", MsgMissingFields},
		{"missing email", [3]string{"Ann", "", "Hi"}, "email", MsgMissingFields},
		{"missing message", [3]string{"Ann", "ann@x.io", " \n"}, "message", MsgMissingFields},
		{"no at sign", [3]string{"Ann", "not-an-email", "Hi"}, "email", MsgInvalidEmail},
		{"no dot in domain", [3]string{"Ann", "ann@localhost", "Hi"}, "email", MsgInvalidEmail},
		{"space inside", [3]string{"Ann", "an n@x.io", "Hi"}, "email", MsgInvalidEmail},
		{"message too long", [3]string{"Ann", "ann@x.io", long}, "message", MsgMessageTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, sender, log := newTestService(nil, nil)

			res, err := svc.Submit(context.Background(), tt.in[0], tt.in[1], tt.in[2])
			assert.Nil(t, res)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)

			assert.Empty(t, log.calls)
			assert.Empty(t, repo.records)
			assert.Empty(t, sender.sent)
		})
	}
}

func TestSubmit_NormalizesInput(t *testing.T) {
	svc, repo, sender, _ := newTestService(nil, nil)

	_, err := svc.Submit(context.Background(), "  Ann  ", "  Ann@X.IO ", "\tHi there\n")
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	assert.Equal(t, "Ann", repo.records[0].Name)
	assert.Equal(t, "ann@x.io", repo.records[0].Email)
	assert.Equal(t, "Hi there", repo.records[0].Message)
	assert.Equal(t, "ann@x.io", sender.sent[0].To)
}

func TestSubmit_MessageAtLimitAccepted(t *testing.T) {
	svc, repo, _, _ := newTestService(nil, nil)

	_, err := svc.Submit(context.Background(), "Ann", "ann@x.io", strings.Repeat("a", MaxMessageLength))
	require.NoError(t, err)
	assert.Len(t, repo.records, 1)
}

func TestSubmit_EndToEndWithRowStore(t *testing.T) {
	table, err := storage.NewLocalTable(filepath.Join(t.TempDir(), "contacts.json"))
	require.NoError(t, err)
	store := rowstore.New(table)
	require.NoError(t, store.EnsureSchema(context.Background()))

	log := &callLog{}
	svc := NewService(store, &mockSender{log: log}).WithClock(func() time.Time { return fixedNow })

	res, err := svc.Submit(context.Background(), "Ann", "ann@x.io", "Hi")
	require.NoError(t, err)
	assert.Equal(t, &Result{Success: true, EmailSent: true, RowIndex: 2}, res)

	records, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].RowIndex)
	assert.Equal(t, "ann@x.io", records[0].Email)
	assert.Equal(t, domain.StatusConfirmed, records[0].Status)
}

func TestSubmit_StoresLeadAfterCallerCancels(t *testing.T) {
	svc, repo, sender, log := newTestService(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender.onSend = cancel

	res, err := svc.Submit(ctx, "Ann", "ann@x.io", "Hi")
	require.NoError(t, err)

	assert.Equal(t, []string{"send:confirmation", "append"}, log.calls)
	assert.True(t, res.EmailSent)
	assert.Equal(t, 2, res.RowIndex)
	require.Len(t, repo.records, 1)
	assert.Equal(t, domain.StatusConfirmed, repo.records[0].Status)
}
