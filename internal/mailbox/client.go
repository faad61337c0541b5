package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailgate/internal/logger"
	"mailgate/internal/model"
	"mailgate/internal/repository"
)

// fetchConcurrency bounds the parallel per-message fetches inside one list
// call. Gmail pages cap at 500 ids; ten in flight keeps well under quota.
const fetchConcurrency = 10

// Client fetches and normalizes messages on behalf of one user.
type Client interface {
	ListMessages(ctx context.Context, user *model.User, filter *Filter) ([]*model.Message, error)
	GetMessage(ctx context.Context, user *model.User, id string) (*model.Message, error)
}

type gmailClient struct {
	oauth    *oauth2.Config
	userRepo repository.UserRepository
	logger   *logger.Logger
	now      func() time.Time

	// extra service options; tests point these at an httptest server
	opts []option.ClientOption
}

// NewGmailClient returns a Client backed by the Gmail API. clientID and
// clientSecret are needed so expired access tokens can be refreshed with the
// stored refresh token.
func NewGmailClient(clientID, clientSecret string, userRepo repository.UserRepository, log *logger.Logger) Client {
	return &gmailClient{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
		},
		userRepo: userRepo,
		logger:   log,
		now:      time.Now,
	}
}

// service builds a Gmail service whose transport refreshes the access token
// transparently. The returned token source is inspected afterwards so a
// refreshed pair can be persisted.
func (c *gmailClient) service(ctx context.Context, user *model.User) (*gmail.Service, oauth2.TokenSource, error) {
	token := &oauth2.Token{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		Expiry:       user.TokenExpiry,
	}
	ts := c.oauth.TokenSource(ctx, token)

	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, ts, nil
}

// persistToken stores a refreshed token pair back onto the user. Best effort:
// concurrent refreshes race last-write-wins and a failed write only logs.
func (c *gmailClient) persistToken(ctx context.Context, user *model.User, ts oauth2.TokenSource) {
	token, err := ts.Token()
	if err != nil || token.AccessToken == user.AccessToken {
		return
	}
	user.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.RefreshToken = token.RefreshToken
	}
	user.TokenExpiry = token.Expiry
	user.UpdatedAt = c.now()
	if err := c.userRepo.Update(ctx, user); err != nil {
		c.logger.Warn("Failed to persist refreshed token for user:", user.ID, err)
	}
}

func (c *gmailClient) ListMessages(ctx context.Context, user *model.User, filter *Filter) ([]*model.Message, error) {
	svc, ts, err := c.service(ctx, user)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Messages.List("me").MaxResults(filter.MaxResults)
	if query := BuildQuery(filter, c.now()); query != "" {
		call = call.Q(query)
	}
	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, ClassifyError(err)
	}

	if len(list.Messages) == 0 {
		return []*model.Message{}, nil
	}

	// Fetch message bodies concurrently but keep the remote list order.
	messages := make([]*model.Message, len(list.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, ref := range list.Messages {
		g.Go(func() error {
			msg, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(gctx).Do()
			if err != nil {
				err = ClassifyError(err)
				// A message can be deleted between list and fetch; skip
				// it rather than failing the whole page.
				if errors.Is(err, ErrNotFound) {
					c.logger.Warn("Message disappeared during fetch, skipping:", ref.Id)
					return nil
				}
				return err
			}
			messages[i] = NormalizeMessage(msg, c.now())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Slots are indexed by list position, so dropping the skipped ones
	// keeps the remote order.
	result := make([]*model.Message, 0, len(messages))
	for _, m := range messages {
		if m != nil {
			result = append(result, m)
		}
	}

	c.persistToken(ctx, user, ts)
	c.logger.Debugf("listed %d messages for %s", len(result), user.Email)
	return result, nil
}

func (c *gmailClient) GetMessage(ctx context.Context, user *model.User, id string) (*model.Message, error) {
	svc, ts, err := c.service(ctx, user)
	if err != nil {
		return nil, err
	}

	msg, err := svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, ClassifyError(err)
	}

	c.persistToken(ctx, user, ts)
	return NormalizeMessage(msg, c.now()), nil
}
