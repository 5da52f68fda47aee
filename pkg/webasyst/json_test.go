package webasyst_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

func TestDateTime(t *testing.T) {
	t.Parallel()

	var payload struct {
		Created webasyst.DateTime `json:"created"`
		Missing webasyst.DateTime `json:"missing"`
		Broken  webasyst.DateTime `json:"broken"`
		Empty   webasyst.DateTime `json:"empty"`
	}

	err := json.Unmarshal([]byte(`{
		"created": "2024-03-09 17:05:42",
		"missing": null,
		"broken": "yesterday",
		"empty": ""
	}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 9, 17, 5, 42, 0, time.UTC), payload.Created.Time)
	assert.True(t, payload.Missing.IsZero())
	assert.True(t, payload.Broken.IsZero())
	assert.True(t, payload.Empty.IsZero())

	encoded, err := json.Marshal(payload.Created)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-09 17:05:42"`, string(encoded))

	encoded, err = json.Marshal(payload.Missing)
	require.NoError(t, err)
	assert.Equal(t, "null", string(encoded))
}

func TestDateTime_DayOfMonth(t *testing.T) {
	t.Parallel()

	// Day of month, not day of year
	value := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2024-12-31 23:59:59", webasyst.FormatDateTime(value))

	parsed, err := webasyst.ParseDateTime("2024-12-31 23:59:59", nil)
	require.NoError(t, err)
	assert.Equal(t, value, parsed)
}

func TestDate(t *testing.T) {
	t.Parallel()

	var date webasyst.Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-15"`), &date))
	assert.Equal(t, "2025-01-15", webasyst.FormatDate(date.Time))

	loc := time.FixedZone("MSK", 3*60*60)
	parsed, err := webasyst.ParseDate("2025-01-15", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, parsed.Location())

	_, err = webasyst.ParseDate("15.01.2025", nil)
	require.Error(t, err)
}

type image struct {
	Original string `json:"original"`
}

func TestFailSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "valid", input: `{"image":{"original":"https://cdn/logo.png"}}`, wantOK: true},
		{name: "wrong type", input: `{"image":"https://cdn/logo.png"}`, wantOK: false},
		{name: "null", input: `{"image":null}`, wantOK: false},
		{name: "absent", input: `{}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var payload struct {
				Image webasyst.FailSafe[image] `json:"image"`
			}

			require.NoError(t, json.Unmarshal([]byte(tt.input), &payload))

			value, ok := payload.Image.Get()
			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, "https://cdn/logo.png", value.Original)
			}
		})
	}
}

func TestFlexList(t *testing.T) {
	t.Parallel()

	t.Run("array", func(t *testing.T) {
		t.Parallel()

		var list webasyst.FlexList[string]
		require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &list))
		assert.Equal(t, webasyst.FlexList[string]{"a", "b"}, list)
	})

	t.Run("object keeps document order", func(t *testing.T) {
		t.Parallel()

		var list webasyst.FlexList[image]
		require.NoError(t, json.Unmarshal([]byte(`{"7":{"original":"x"},"2":{"original":"y"}}`), &list))
		require.Len(t, list, 2)
		assert.Equal(t, "x", list[0].Original)
		assert.Equal(t, "y", list[1].Original)
	})

	t.Run("empty object", func(t *testing.T) {
		t.Parallel()

		var list webasyst.FlexList[int]
		require.NoError(t, json.Unmarshal([]byte(`{}`), &list))
		assert.Empty(t, list)
	})

	t.Run("null", func(t *testing.T) {
		t.Parallel()

		var list webasyst.FlexList[int]
		require.NoError(t, json.Unmarshal([]byte(`null`), &list))
		assert.Nil(t, list)

		encoded, err := json.Marshal(list)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(encoded))
	})

	t.Run("scalar is an error", func(t *testing.T) {
		t.Parallel()

		var list webasyst.FlexList[int]
		require.Error(t, json.Unmarshal([]byte(`5`), &list))
	})

	t.Run("bad element", func(t *testing.T) {
		t.Parallel()

		var list webasyst.FlexList[int]
		require.Error(t, json.Unmarshal([]byte(`{"a":"not a number"}`), &list))
	})
}
