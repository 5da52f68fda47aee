package webasyst_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

func TestResponse(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		resp := webasyst.Success(42)

		assert.True(t, resp.IsSuccess())
		assert.False(t, resp.IsFailure())
		require.NoError(t, resp.Err())

		value, ok := resp.Value()
		assert.True(t, ok)
		assert.Equal(t, 42, value)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")
		resp := webasyst.Failure[int](cause)

		assert.False(t, resp.IsSuccess())
		assert.True(t, resp.IsFailure())
		require.ErrorIs(t, resp.Err(), cause)

		_, ok := resp.Value()
		assert.False(t, ok)
	})

	t.Run("failure without cause is still a failure", func(t *testing.T) {
		t.Parallel()

		resp := webasyst.Failure[string](nil)

		require.True(t, resp.IsFailure())
		assert.True(t, webasyst.IsCode(resp.Err(), webasyst.CodeUnrecognized))
	})

	t.Run("try", func(t *testing.T) {
		t.Parallel()

		ok := webasyst.Try(func() (string, error) { return "v", nil })
		value, err := ok.Unwrap()
		require.NoError(t, err)
		assert.Equal(t, "v", value)

		failed := webasyst.Try(func() (string, error) { return "", errors.New("x") })
		assert.True(t, failed.IsFailure())
	})

	t.Run("callbacks", func(t *testing.T) {
		t.Parallel()

		var got []string

		webasyst.Success("value").
			OnSuccess(func(v string) { got = append(got, "success:"+v) }).
			OnFailure(func(error) { got = append(got, "failure") })

		webasyst.Failure[string](errors.New("e")).
			OnSuccess(func(string) { got = append(got, "success") }).
			OnFailure(func(err error) { got = append(got, "failure:"+err.Error()) })

		assert.Equal(t, []string{"success:value", "failure:e"}, got)
	})
}
