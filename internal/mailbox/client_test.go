package mailbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailgate/internal/logger"
	"mailgate/internal/model"
	"mailgate/internal/repository/memory"
)

// gmailStub serves just enough of the Gmail REST surface for the client:
// the messages list and per-id get endpoints. Per-id delays let tests force
// completion order to differ from list order.
type gmailStub struct {
	ids        []string
	delays     map[string]time.Duration
	statusByID map[string]int
	listStatus int

	listQuery      string
	listMaxResults string
}

func (s *gmailStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if strings.HasSuffix(r.URL.Path, "/messages") {
		s.listQuery = r.URL.Query().Get("q")
		s.listMaxResults = r.URL.Query().Get("maxResults")
		if s.listStatus != 0 {
			writeAPIError(w, s.listStatus, "Invalid Credentials")
			return
		}
		resp := &gmail.ListMessagesResponse{}
		for _, id := range s.ids {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	id := path.Base(r.URL.Path)
	if d := s.delays[id]; d > 0 {
		time.Sleep(d)
	}
	if status := s.statusByID[id]; status != 0 {
		writeAPIError(w, status, "Requested entity was not found.")
		return
	}
	_ = json.NewEncoder(w).Encode(&gmail.Message{
		Id:       id,
		ThreadId: "thread-" + id,
		Snippet:  "snippet " + id,
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "subject " + id},
			},
			Body: &gmail.MessagePartBody{Data: b64("body " + id)},
		},
	})
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, message)
}

func newTestGmailClient(t *testing.T, stub *gmailStub) (*gmailClient, *memory.InMemoryUserRepository) {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	repo := memory.NewInMemoryUserRepository()
	return &gmailClient{
		oauth:    &oauth2.Config{ClientID: "id", ClientSecret: "secret"},
		userRepo: repo,
		logger:   logger.NewWithWriter(&bytes.Buffer{}),
		now:      func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
		opts:     []option.ClientOption{option.WithEndpoint(srv.URL)},
	}, repo
}

// A zero expiry keeps the oauth2 token source from trying to refresh against
// the real Google endpoint.
func stubUser() *model.User {
	return model.NewUser("google_1", "user@example.com", "User", "access", "refresh", time.Time{})
}

func TestListMessagesPreservesListOrder(t *testing.T) {
	// The slowest responses come first in the list, so completion order is
	// the reverse of list order.
	stub := &gmailStub{
		ids: []string{"m1", "m2", "m3"},
		delays: map[string]time.Duration{
			"m1": 60 * time.Millisecond,
			"m2": 30 * time.Millisecond,
		},
	}
	client, _ := newTestGmailClient(t, stub)

	messages, err := client.ListMessages(context.Background(), stubUser(), &Filter{MaxResults: 50})
	assert.NoError(t, err)
	assert.Len(t, messages, 3)
	for i, want := range []string{"m1", "m2", "m3"} {
		assert.Equal(t, want, messages[i].ID)
		assert.Equal(t, "subject "+want, messages[i].Subject)
		assert.Equal(t, "body "+want, messages[i].Body)
		assert.False(t, messages[i].IsRead)
	}
}

func TestListMessagesQueryAndMaxResults(t *testing.T) {
	stub := &gmailStub{ids: []string{"m1"}}
	client, _ := newTestGmailClient(t, stub)

	isRead := false
	filter := &Filter{IsRead: &isRead, TimeRange: "days", TimeValue: 7, MaxResults: 25}
	_, err := client.ListMessages(context.Background(), stubUser(), filter)
	assert.NoError(t, err)
	assert.Equal(t, "is:unread after:2024/06/08", stub.listQuery)
	assert.Equal(t, "25", stub.listMaxResults)
}

func TestListMessagesEmptyResult(t *testing.T) {
	stub := &gmailStub{}
	client, _ := newTestGmailClient(t, stub)

	messages, err := client.ListMessages(context.Background(), stubUser(), &Filter{MaxResults: 50})
	assert.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Len(t, messages, 0)
}

func TestListMessagesSkipsVanishedMessages(t *testing.T) {
	// A message deleted between list and fetch must not fail the page; the
	// rest come back in list order.
	stub := &gmailStub{
		ids:        []string{"m1", "gone", "m3"},
		statusByID: map[string]int{"gone": http.StatusNotFound},
	}
	client, _ := newTestGmailClient(t, stub)

	messages, err := client.ListMessages(context.Background(), stubUser(), &Filter{MaxResults: 50})
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m3", messages[1].ID)
}

func TestListMessagesAuthExpired(t *testing.T) {
	stub := &gmailStub{listStatus: http.StatusUnauthorized}
	client, _ := newTestGmailClient(t, stub)

	_, err := client.ListMessages(context.Background(), stubUser(), &Filter{MaxResults: 50})
	assert.ErrorIs(t, err, ErrAuthExpired)
}

func TestGetMessageRoundTrip(t *testing.T) {
	stub := &gmailStub{}
	client, _ := newTestGmailClient(t, stub)

	msg, err := client.GetMessage(context.Background(), stubUser(), "m42")
	assert.NoError(t, err)
	assert.Equal(t, "m42", msg.ID)
	assert.Equal(t, "thread-m42", msg.ThreadID)
	assert.Equal(t, "body m42", msg.Body)
}

func TestGetMessageNotFound(t *testing.T) {
	stub := &gmailStub{statusByID: map[string]int{"missing": http.StatusNotFound}}
	client, _ := newTestGmailClient(t, stub)

	_, err := client.GetMessage(context.Background(), stubUser(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Requested entity was not found.", RemoteMessage(err))
}

func TestPersistTokenStoresRefreshedPair(t *testing.T) {
	client, repo := newTestGmailClient(t, &gmailStub{})
	user := stubUser()
	assert.NoError(t, repo.Create(context.Background(), user))

	refreshed := &oauth2.Token{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		Expiry:       time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC),
	}
	client.persistToken(context.Background(), user, oauth2.StaticTokenSource(refreshed))

	stored, err := repo.FindByID(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
	assert.Equal(t, refreshed.Expiry, stored.TokenExpiry)
}

func TestPersistTokenNoopOnUnchangedToken(t *testing.T) {
	client, repo := newTestGmailClient(t, &gmailStub{})
	user := stubUser()
	assert.NoError(t, repo.Create(context.Background(), user))
	before := user.UpdatedAt

	same := &oauth2.Token{AccessToken: user.AccessToken}
	client.persistToken(context.Background(), user, oauth2.StaticTokenSource(same))

	assert.Equal(t, before, user.UpdatedAt)
	assert.Equal(t, "refresh", user.RefreshToken)
}
