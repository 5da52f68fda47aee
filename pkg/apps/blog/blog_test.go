package blog_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/apps/blog"
	"github.com/webasyst/webasyst-go/pkg/apps/internal/appstest"
)

func TestGetPosts(t *testing.T) {
	t.Parallel()

	installation := appstest.New(t, blog.Register(), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api.php/blog.post.search", r.URL.Path)

		_, _ = w.Write([]byte(`{"offset":0,"limit":20,"count":2,"posts":{
			"7":{"id":"7","datetime":"2024-03-05 14:30:00","title":"Hello","text":"<p>Hi</p>","user":{"id":"1","name":"Ann","photo_url_20":"/u.jpg"}},
			"3":{"id":"3","datetime":"not a date","title":"Draft","text":"","user":{"id":"1","name":"Ann"}}
		}}`))
	})

	posts, err := appstest.Module[*blog.Client](installation).GetPosts(context.Background()).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 2, posts.Count)
	require.Len(t, posts.Posts, 2)

	first := posts.Posts[0]
	assert.Equal(t, "7", first.ID)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), first.DateTime.Time)
	assert.Equal(t, "Ann", first.User.Name)

	assert.Equal(t, "3", posts.Posts[1].ID)
	assert.True(t, posts.Posts[1].DateTime.IsZero())
}

func TestGetPosts_AppNotInstalled(t *testing.T) {
	t.Parallel()

	installation := appstest.New(t, blog.Register(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"app_not_installed","error_description":"Blog is not installed"}`))
	})

	resp := appstest.Module[*blog.Client](installation).GetPosts(context.Background())
	require.True(t, resp.IsFailure())
	assert.ErrorContains(t, resp.Err(), "app_not_installed")
}
