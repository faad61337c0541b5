package mailbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuery(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	isRead := true
	isUnread := false

	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{"empty", &Filter{MaxResults: 50}, ""},
		{"read", &Filter{IsRead: &isRead}, "is:read"},
		{"unread", &Filter{IsRead: &isUnread}, "is:unread"},
		{"days", &Filter{TimeRange: "days", TimeValue: 7}, "after:2024/06/08"},
		{"hours", &Filter{TimeRange: "hours", TimeValue: 48}, "after:2024/06/13"},
		{"weeks", &Filter{TimeRange: "weeks", TimeValue: 2}, "after:2024/06/01"},
		{"months", &Filter{TimeRange: "months", TimeValue: 1}, "after:2024/05/16"},
		{"combined", &Filter{IsRead: &isUnread, TimeRange: "days", TimeValue: 3}, "is:unread after:2024/06/12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.filter, now))
		})
	}
}

func TestBuildQueryDeterministic(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	isRead := false
	f := &Filter{IsRead: &isRead, TimeRange: "weeks", TimeValue: 1}

	first := BuildQuery(f, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildQuery(f, now))
	}
}
