package notifications

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	created   []string
	createErr error
	enabled   bool
	from      string
	email     string
}

func (f *fakeStore) CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, ntype+"|"+title+"|"+body)
	return nil
}

func (f *fakeStore) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	return f.email, nil
}

func (f *fakeStore) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	return f.enabled, f.from, nil
}

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, from, to, subject, body string) error {
	m.sent = append(m.sent, from+"->"+to+":"+subject)
	return m.err
}

func TestCreateStoresAndMailsWhenEnabled(t *testing.T) {
	store := &fakeStore{enabled: true, email: "emp@example.com"}
	mailer := &recordingMailer{}
	svc := New(store, mailer, "hr@example.com")

	if err := svc.Create(context.Background(), "t1", "u1", TypeToast, "Success", "Leave request created successfully"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 || store.created[0] != "toast|Success|Leave request created successfully" {
		t.Fatalf("unexpected stored notifications: %v", store.created)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "hr@example.com->emp@example.com:Success" {
		t.Fatalf("unexpected mail: %v", mailer.sent)
	}
}

func TestCreateSkipsMailWhenDisabledAndSwallowsMailErrors(t *testing.T) {
	store := &fakeStore{enabled: false, email: "emp@example.com"}
	mailer := &recordingMailer{}
	if err := New(store, mailer, "").Create(context.Background(), "t1", "u1", TypeToast, "t", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail, got %v", mailer.sent)
	}

	store.enabled = true
	mailer.err = errors.New("smtp down")
	if err := New(store, mailer, "").Create(context.Background(), "t1", "u1", TypeToast, "t", "b"); err != nil {
		t.Fatalf("mail failure must not surface, got %v", err)
	}
}

func TestCreateReturnsStoreError(t *testing.T) {
	store := &fakeStore{createErr: errors.New("db down")}
	if err := New(store, nil, "").Create(context.Background(), "t1", "u1", TypeToast, "t", "b"); err == nil {
		t.Fatal("expected store error")
	}
}
