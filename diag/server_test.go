package diag

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/abyssdigger/ringlog"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*ringlog.Facade, *httptest.Server) {
	t.Helper()
	f := ringlog.NewFacade(nil, 4)
	ts := httptest.NewServer(NewServer(f).Handler())
	t.Cleanup(ts.Close)
	return f, ts
}

func getEntries(t *testing.T, ts *httptest.Server, rawQuery string) (int, EntriesResponse) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/entries?" + rawQuery)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body EntriesResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func Test_HandleEntries(t *testing.T) {
	f, ts := newTestServer(t)
	t.Run("empty", func(t *testing.T) {
		status, body := getEntries(t, ts, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Zero(t, body.Count)
		assert.NotNil(t, body.Entries)
	})

	f.Log(ringlog.Record{Level: ringlog.LVL_DEBUG, Target: "net::tcp", Message: "dial"})
	f.Log(ringlog.Record{Level: ringlog.LVL_WARN, Target: "net::http", Message: "slow"})
	f.Log(ringlog.Record{Level: ringlog.LVL_ERROR, Target: "db", Message: "gone"})

	t.Run("all", func(t *testing.T) {
		_, body := getEntries(t, ts, "")
		assert.Equal(t, 3, body.Count)
		assert.Equal(t, uint64(3), body.Version)
		assert.Equal(t, "dial", body.Entries[0].Message)
		assert.Equal(t, ringlog.LVL_ERROR, body.Entries[2].Level)
	})
	t.Run("level", func(t *testing.T) {
		_, body := getEntries(t, ts, "level=warn")
		assert.Equal(t, 2, body.Count)
	})
	t.Run("target", func(t *testing.T) {
		_, body := getEntries(t, ts, "target=net")
		assert.Equal(t, 2, body.Count)
		_, body = getEntries(t, ts, "target=net&level=error")
		assert.Zero(t, body.Count)
	})
	t.Run("bad_level", func(t *testing.T) {
		status, _ := getEntries(t, ts, "level=loud")
		assert.Equal(t, http.StatusBadRequest, status)
	})
	t.Run("gzip", func(t *testing.T) {
		for i := range 50 {
			f.Log(ringlog.Record{Level: ringlog.LVL_INFO, Target: "bulk", Message: strings.Repeat("x", 500+i)})
		}
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/entries", nil)
		require.NoError(t, err)
		req.Header.Set("Accept-Encoding", "gzip")
		// a transport with compression disabled leaves the body encoded
		client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
		zr, err := gzip.NewReader(resp.Body)
		require.NoError(t, err)
		data, err := io.ReadAll(zr)
		require.NoError(t, err)
		var body EntriesResponse
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, 7, body.Count)
	})
}

func Test_HandleHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(4), body["capacity"])
}

func wsDial(t *testing.T, ts *httptest.Server, rawQuery string) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = rawQuery
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) EntriesResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg EntriesResponse
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func Test_HandleWebsocket(t *testing.T) {
	prev := PollInterval
	PollInterval = 10 * time.Millisecond
	t.Cleanup(func() { PollInterval = prev })

	f, ts := newTestServer(t)
	f.Log(ringlog.Record{Level: ringlog.LVL_INFO, Target: "app", Message: "before"})

	conn := wsDial(t, ts, "level=info")
	first := readMsg(t, conn)
	assert.Equal(t, "init", first.Type)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, "before", first.Entries[0].Message)

	f.Log(ringlog.Record{Level: ringlog.LVL_DEBUG, Target: "app", Message: "filtered"})
	f.Log(ringlog.Record{Level: ringlog.LVL_ERROR, Target: "app", Message: "after"})
	// an update may be sent between the two records
	update := readMsg(t, conn)
	if update.Version != 3 {
		update = readMsg(t, conn)
	}
	assert.Equal(t, uint64(3), update.Version)
	assert.Equal(t, "update", update.Type)
	assert.Equal(t, 2, update.Count)
	assert.Equal(t, "after", update.Entries[1].Message)
}

func Test_HandleWebsocket_badLevel(t *testing.T) {
	_, ts := newTestServer(t)
	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = "level=loud"
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Error(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}
