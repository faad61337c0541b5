package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"mailgate/internal/config"
	"mailgate/internal/logger"
	"mailgate/internal/mailbox"
	"mailgate/internal/middleware"
	"mailgate/internal/model"
)

func newEmailHandler(mock *mailbox.MockClient) *EmailHandler {
	cfg := &config.Config{Env: "development"}
	return NewEmailHandler(mock, cfg, logger.NewWithWriter(&bytes.Buffer{}))
}

func emailRequest(target string, user *model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		middleware.SetIdentity(c, user)
	}
	return c, rec
}

func connectedUser() *model.User {
	return model.NewUser("google_1", "user@example.com", "User", "access", "refresh", time.Now().Add(time.Hour))
}

func TestListEmailsUnread(t *testing.T) {
	mock := mailbox.NewMockClient()
	mock.ListMessagesFunc = func(ctx context.Context, user *model.User, filter *mailbox.Filter) ([]*model.Message, error) {
		assert.NotNil(t, filter.IsRead)
		assert.False(t, *filter.IsRead)
		return []*model.Message{
			{ID: "m1", Subject: "first", IsRead: false, To: []string{}, Labels: []string{"UNREAD"}},
			{ID: "m2", Subject: "second", IsRead: false, To: []string{}, Labels: []string{"UNREAD"}},
		}, nil
	}

	c, rec := emailRequest("/api/emails?isRead=false", connectedUser())
	assert.NoError(t, newEmailHandler(mock).ListEmails(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool            `json:"success"`
		Count   int             `json:"count"`
		Filters mailbox.Filter  `json:"filters"`
		Emails  []model.Message `json:"emails"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Count)
	assert.NotNil(t, body.Filters.IsRead)
	assert.False(t, *body.Filters.IsRead)
	assert.Len(t, body.Emails, 2)
	for _, email := range body.Emails {
		assert.False(t, email.IsRead)
	}
}

func TestListEmailsEmptyResult(t *testing.T) {
	c, rec := emailRequest("/api/emails", connectedUser())
	assert.NoError(t, newEmailHandler(mailbox.NewMockClient()).ListEmails(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestListEmailsBadFilter(t *testing.T) {
	c, rec := emailRequest("/api/emails?timeRange=days", connectedUser())
	assert.NoError(t, newEmailHandler(mailbox.NewMockClient()).ListEmails(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeValue")
}

func TestListEmailsAnonymous(t *testing.T) {
	c, rec := emailRequest("/api/emails", nil)
	assert.NoError(t, newEmailHandler(mailbox.NewMockClient()).ListEmails(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetEmailNotFound(t *testing.T) {
	mock := mailbox.NewMockClient()
	mock.GetMessageFunc = func(ctx context.Context, user *model.User, id string) (*model.Message, error) {
		return nil, mailbox.ClassifyError(errors.New("Not Found"))
	}

	c, rec := emailRequest("/api/emails/123", connectedUser())
	c.SetParamNames("id")
	c.SetParamValues("123")
	assert.NoError(t, newEmailHandler(mock).GetEmail(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Email not found","message":"Not Found"}`, rec.Body.String())
}

func TestGetEmailAuthExpired(t *testing.T) {
	mock := mailbox.NewMockClient()
	mock.GetMessageFunc = func(ctx context.Context, user *model.User, id string) (*model.Message, error) {
		return nil, mailbox.ClassifyError(errors.New(`oauth2: "invalid_grant" "Token has been expired or revoked."`))
	}

	c, rec := emailRequest("/api/emails/123", connectedUser())
	c.SetParamNames("id")
	c.SetParamValues("123")
	assert.NoError(t, newEmailHandler(mock).GetEmail(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Google authentication expired. Please re-authenticate.", body["error"])
	assert.Equal(t, "AUTH_EXPIRED", body["code"])
}

func TestGetEmailSuccess(t *testing.T) {
	mock := mailbox.NewMockClient()
	mock.GetMessageFunc = func(ctx context.Context, user *model.User, id string) (*model.Message, error) {
		return &model.Message{ID: id, Subject: "hello"}, nil
	}

	c, rec := emailRequest("/api/emails/abc", connectedUser())
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assert.NoError(t, newEmailHandler(mock).GetEmail(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"subject":"hello"`)
}

func TestRemoteErrorProductionHidesDetails(t *testing.T) {
	mock := mailbox.NewMockClient()
	mock.ListMessagesFunc = func(ctx context.Context, user *model.User, filter *mailbox.Filter) ([]*model.Message, error) {
		return nil, errors.New("pq: connection refused")
	}

	h := NewEmailHandler(mock, &config.Config{Env: "production"}, logger.NewWithWriter(&bytes.Buffer{}))
	c, rec := emailRequest("/api/emails", connectedUser())
	assert.NoError(t, h.ListEmails(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
