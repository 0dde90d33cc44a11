package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		host   bool
	}{
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed with query", "https://www.youtube.com/embed/dQw4w9WgXcQ?start=30", "dQw4w9WgXcQ", true},
		{"protocol relative nocookie", "//www.youtube-nocookie.com/embed/dQw4w9WgXcQ?rel=0", "dQw4w9WgXcQ", true},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s", "dQw4w9WgXcQ", true},
		{"watch with escaped ampersand", "https://www.youtube.com/watch?feature=share&amp;v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"mobile watch", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts", "https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"id too short", "https://www.youtube.com/embed/short", "", true},
		{"id too long", "https://www.youtube.com/embed/dQw4w9WgXcQextra", "", true},
		{"channel page", "https://www.youtube.com/@someone", "", true},
		{"other host", "https://vimeo.com/123456", "", false},
		{"lookalike host", "https://notyoutube.com/embed/dQw4w9WgXcQ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, host := videoID(tt.url)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.host, host)
		})
	}
}

func TestScanReferences(t *testing.T) {
	markup := `<p>See <a href="https://youtu.be/dQw4w9WgXcQ">this</a> and <a href="/local">that</a>.</p>
<iframe src="https://www.youtube.com/embed/aaaaaaaaaaa" allowfullscreen></iframe>
<iframe data-src="https://www.youtube.com/embed/bbbbbbbbbbb" src="https://player.vimeo.com/video/1"></iframe>
<iframe src='https://www.youtube.com/embed/dQw4w9WgXcQ'/>`

	refs := scanReferences(markup)

	if assert.Len(t, refs, 3) {
		assert.Equal(t, KindIframeEmbed, refs[0].Kind)
		assert.Equal(t, "aaaaaaaaaaa", refs[0].ExternalID)
		assert.Equal(t, KindIframeEmbed, refs[1].Kind)
		assert.Equal(t, "dQw4w9WgXcQ", refs[1].ExternalID)
		assert.Equal(t, KindAnchorLink, refs[2].Kind)
		assert.Equal(t, "dQw4w9WgXcQ", refs[2].ExternalID)
	}
	assert.Equal(t, []string{"aaaaaaaaaaa", "dQw4w9WgXcQ"}, referenceIDs(refs))
}

func TestChunk(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunk(ids, 2))
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, chunk(ids, 45))
	assert.Nil(t, chunk(nil, 45))
}

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		lang  string
		tag   string
		dir   string
		label string
	}{
		{"", "en", "ltr", "Watch the video"},
		{"not a tag!", "en", "ltr", "Watch the video"},
		{"ar", "ar", "rtl", "شاهد الفيديو"},
		{"he-IL", "he-IL", "rtl", "צפו בסרטון"},
		{"fa", "fa", "rtl", "تماشای ویدیو"},
		{"fr-CA", "fr-CA", "ltr", "Regarder la vidéo"},
		{"de", "de", "ltr", "Watch the video"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			loc := resolveLocale(tt.lang)
			assert.Equal(t, tt.tag, loc.tag)
			assert.Equal(t, tt.dir, loc.dir)
			assert.Equal(t, tt.label, loc.videoLabel())
		})
	}
}
