package client

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musidex/internal/models"
	"musidex/internal/testutil"
)

// newFakeDaemon serves the daemon endpoints the client talks to, backed by a
// fixed snapshot. Mutating requests are recorded for inspection.
func newFakeDaemon(t *testing.T, raw models.RawMetadata) (*httptest.Server, *fakeDaemonState) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := &fakeDaemonState{}
	frame := deflateJSON(t, raw)
	router := gin.New()
	router.GET("/api/metadata", func(c *gin.Context) {
		c.JSON(http.StatusOK, raw)
	})
	router.POST("/api/tag/create", func(c *gin.Context) {
		var tag models.Tag
		if !assert.NoError(t, c.ShouldBindJSON(&tag)) {
			c.Status(http.StatusBadRequest)
			return
		}
		state.insertedTags = append(state.insertedTags, tag)
		c.Status(http.StatusOK)
	})
	router.POST("/api/config/update", func(c *gin.Context) {
		var body map[string]string
		if !assert.NoError(t, c.ShouldBindJSON(&body)) {
			c.Status(http.StatusBadRequest)
			return
		}
		state.settings = append(state.settings, [2]string{body["key"], body["value"]})
		c.Status(http.StatusOK)
	})
	router.DELETE("/api/music/:id", func(c *gin.Context) {
		state.deletedMusics = append(state.deletedMusics, c.Param("id"))
		c.Status(http.StatusOK)
	})
	router.POST("/api/user/create", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/api/youtube_upload", func(c *gin.Context) {
		var body map[string]string
		if !assert.NoError(t, c.ShouldBindJSON(&body)) {
			c.Status(http.StatusBadRequest)
			return
		}
		state.uploads = append(state.uploads, body["url"])
		c.Status(http.StatusOK)
	})
	router.GET("/api/metadata/ws", func(c *gin.Context) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		assert.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, state
}

type fakeDaemonState struct {
	insertedTags  []models.Tag
	settings      [][2]string
	deletedMusics []string
	uploads       []string
}

func deflateJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestMetadata(t *testing.T) {
	raw := testutil.NewRawBuilder().WithMusic(1, 2).WithTitle(1, "Alpha").Build()
	srv, _ := newFakeDaemon(t, raw)

	got, err := New(srv.URL).Metadata(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, raw.Musics, got.Musics)
	require.NotNil(t, got.Tags)
	assert.Len(t, *got.Tags, 1)
}

func TestMetadata_DaemonError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/metadata", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	// No retries so the error surfaces immediately.
	c := New(srv.URL)
	c.http.SetRetryCount(0)

	_, err := c.Metadata(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "metadata", apiErr.Operation)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestWriteEndpoints(t *testing.T) {
	raw := testutil.NewRawBuilder().WithMusic(1).Build()
	srv, state := newFakeDaemon(t, raw)
	c := New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.InsertTag(ctx, models.NewTextTag(1, "genre", "ambient")))
	require.Len(t, state.insertedTags, 1)
	assert.Equal(t, "genre", state.insertedTags[0].Key)

	require.NoError(t, c.UpdateSetting(ctx, "theme", "dark"))
	assert.Equal(t, [][2]string{{"theme", "dark"}}, state.settings)

	require.NoError(t, c.DeleteMusic(ctx, 1))
	assert.Equal(t, []string{"1"}, state.deletedMusics)

	require.NoError(t, c.CreateUser(ctx, "sam"))

	require.NoError(t, c.YoutubeUpload(ctx, "https://youtube.com/watch?v=x"))
	assert.Equal(t, []string{"https://youtube.com/watch?v=x"}, state.uploads)
}

func TestStreamURL(t *testing.T) {
	c := New("http://localhost:3200")
	assert.Equal(t, "http://localhost:3200/api/stream/42", c.StreamURL(42))
}

func TestWebsocketURL(t *testing.T) {
	ws, err := New("http://localhost:3200").WebsocketURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3200/api/metadata/ws", ws)

	wss, err := New("https://musidex.example.com").WebsocketURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://musidex.example.com/api/metadata/ws", wss)
}

func TestDecodeMetadataFrame(t *testing.T) {
	raw := testutil.NewRawBuilder().WithMusic(1, 2, 3).WithTitle(2, "Beta").Build()

	got, err := DecodeMetadataFrame(deflateJSON(t, raw))
	require.NoError(t, err)
	assert.Equal(t, raw.Musics, got.Musics)
}

func TestDecodeMetadataFrame_Malformed(t *testing.T) {
	_, err := DecodeMetadataFrame([]byte{0x00, 0x01, 0x02})
	assert.Error(t, err)

	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = w.Write([]byte("not json"))
	_ = w.Close()

	_, err = DecodeMetadataFrame(buf.Bytes())
	assert.Error(t, err)
}

func TestSubscribeMetadata(t *testing.T) {
	raw := testutil.NewRawBuilder().WithMusic(7).Build()
	srv, _ := newFakeDaemon(t, raw)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := New(srv.URL).SubscribeMetadata(ctx)
	require.NoError(t, err)

	got, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, raw.Musics, got.Musics)

	// The server hangs up after one frame; the channel closes.
	_, ok = <-ch
	assert.False(t, ok)
}
