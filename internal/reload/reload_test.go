package reload

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLoader_LoadsTitleAndBody(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "<html><head><TITLE> Status\n Board </TITLE></head>\r\n<body>ok</body></html>")
	}))
	t.Cleanup(srv.Close)

	l := NewHTTPLoader(time.Second)
	page := l.Load(context.Background(), srv.URL)
	require.NoError(t, page.Err)
	assert.Equal(t, "200 OK", page.Status)
	assert.Equal(t, "Status Board", page.Title)
	assert.Equal(t, []string{"<html><head><TITLE> Status", " Board </TITLE></head>", "<body>ok</body></html>"}, page.Body)
	assert.Equal(t, int32(1), hits.Load(), "one request per load")
}

func TestHTTPLoader_Errors(t *testing.T) {
	t.Parallel()
	l := NewHTTPLoader(0)

	page := l.Load(context.Background(), "")
	require.ErrorIs(t, page.Err, ErrEmptyAddress)

	page = l.Load(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, page.Err)
	assert.Equal(t, "http://127.0.0.1:1/unreachable", page.Title)
}

func TestCommandLoader(t *testing.T) {
	t.Parallel()
	l := &CommandLoader{Command: `echo "$AUTOREFRESH_ADDRESS"; echo second`}
	page := l.Load(context.Background(), "https://example.com/")
	require.NoError(t, page.Err)
	assert.Equal(t, []string{"https://example.com/", "second"}, page.Body)
	assert.Equal(t, "exit 0", page.Status)

	failing := &CommandLoader{Command: "exit 3"}
	page = failing.Load(context.Background(), "x")
	require.Error(t, page.Err)
}

func TestHTMLTitle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", htmlTitle([]byte("no title here")))
	assert.Equal(t, "", htmlTitle([]byte("<title>unterminated")))
	assert.Equal(t, "A", htmlTitle([]byte(`<title lang="en">A</title>`)))
}
