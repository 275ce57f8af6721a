package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/threec/aurion/internal/database"
)

// ErrInvalidPost marks a post that can never be sent as stored.
var ErrInvalidPost = errors.New("invalid scheduled post")

var clockLayouts = []string{"15:04:05", "15:04"}

// validClock accepts zero-padded times only: due posts are compared as
// text, where "9:00" sorts after "09:00:15".
var validClock = validation.By(func(value any) error {
	s, _ := value.(string)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil && t.Format(layout) == s {
			return nil
		}
	}
	return errors.New("must be zero-padded HH:MM or HH:MM:SS")
})

// ValidatePost checks the fields DispatchOne needs before anything is sent.
func ValidatePost(post *database.ScheduledPost) error {
	if post == nil {
		return fmt.Errorf("%w: post is nil", ErrInvalidPost)
	}

	err := validation.ValidateStruct(post,
		validation.Field(&post.ChannelGroupID, validation.Required),
		validation.Field(&post.ScheduledDate, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&post.ScheduledTime, validation.Required, validClock),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}

	c := post.PostContent
	if strings.TrimSpace(c.Content) == "" && strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("%w: post_content needs content, title or description", ErrInvalidPost)
	}

	if m, kind := PrimaryMedia(post); kind != KindText {
		if err := validation.Validate(m.URL, is.RequestURL); err != nil {
			return fmt.Errorf("%w: media url %q: %v", ErrInvalidPost, m.URL, err)
		}
	}
	return nil
}
