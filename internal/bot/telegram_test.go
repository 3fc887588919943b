package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestCallWithContext(t *testing.T) {
	v, err := callWithContext(context.Background(), func() (string, error) {
		return "https://a/1.png", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "https://a/1.png", v)

	boom := errors.New("boom")
	_, err = callWithContext(context.Background(), func() (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCallWithContext_ReturnsOnDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := callWithContext(ctx, func() (string, error) {
		<-release
		return "late", nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFileURL(t *testing.T) {
	assert.Equal(t,
		"https://api.telegram.org/file/bot123:abc/photos/file_1.jpg",
		fileURL("https://api.telegram.org/", "123:abc", "/photos/file_1.jpg"))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		user tele.User
		want string
	}{
		{tele.User{FirstName: "Alice", LastName: "Smith"}, "Alice Smith"},
		{tele.User{FirstName: " Bob "}, "Bob"},
		{tele.User{Username: "carol"}, "@carol"},
		{tele.User{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, displayName(&tt.user))
	}
}
