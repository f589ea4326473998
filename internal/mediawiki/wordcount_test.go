package mediawiki

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     int
	}{
		{"empty", "", 0},
		{"plain", "<p>Go is a  programming\nlanguage.</p>", 5},
		{"nested", `<div class="mw-parser-output"><p>One <b>two</b> three</p><ul><li>four</li></ul></div>`, 4},
		{"script and style skipped", `<style>.a{color:red}</style><p>visible words</p><script>var x = 1;</script>`, 2},
		{"entities", "<p>Tom &amp; Jerry</p>", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.fragment))
		})
	}
}

func TestArticleWordCount(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "parse", q.Get("action"))
		assert.Equal(t, "Go", q.Get("page"))
		writeJSON(w, http.StatusOK, `{"parse":{"title":"Go","pageid":1,"text":"<div><p>Go is expressive, concise, clean.</p></div>"}}`)
	})
	ctx := context.Background()

	count, err := h.client.ArticleWordCount(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	_, err = h.client.ArticleWordCount(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestArticleWordCount_MissingPage(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`)
	})

	_, err := h.client.ArticleWordCount(context.Background(), "Nope")
	require.Error(t, err)
}
