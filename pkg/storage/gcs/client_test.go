package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenSourceCachesUntilNearExpiry(t *testing.T) {
	var calls int32
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return "tok", time.Now().Add(time.Hour), nil
	}}

	for i := 0; i < 3; i++ {
		tok, err := ts.Token(context.Background())
		require.NoError(t, err)
		require.Equal(t, "tok", tok)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	ts.expiry = time.Now().Add(30 * time.Second)
	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestServiceAccountTokenExchange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))
		require.Len(t, strings.Split(r.PostForm.Get("assertion"), "."), 3)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"sa-token","expires_in":3600}`))
	}))
	defer server.Close()

	creds, err := json.Marshal(map[string]string{
		"client_email": "uploader@cartela.iam.gserviceaccount.com",
		"private_key":  string(keyPEM),
		"token_uri":    server.URL,
	})
	require.NoError(t, err)

	ts, err := newServiceAccountTokenSource(server.Client(), string(creds))
	require.NoError(t, err)

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sa-token", tok)
}

func TestServiceAccountRejectsIncompleteCredentials(t *testing.T) {
	_, err := newServiceAccountTokenSource(http.DefaultClient, `{"client_email":""}`)
	require.Error(t, err)

	_, err = newServiceAccountTokenSource(http.DefaultClient, `not-json`)
	require.Error(t, err)
}

func TestUploadSendsMediaAndReturnsPublicURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload/storage/v1/b/cartelas/o", r.URL.Path)
		require.Equal(t, "media", r.URL.Query().Get("uploadType"))
		require.Equal(t, "groups/g1/card.png", r.URL.Query().Get("name"))
		require.Equal(t, "Bearer static", r.Header.Get("Authorization"))
		require.Equal(t, "image/png", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "png-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bucket":"cartelas","name":"groups/g1/card.png","size":"9"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	obj, err := client.Upload(context.Background(), "/groups/g1/card.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "cartelas", obj.Bucket)
	require.EqualValues(t, 9, obj.Size)
	require.Equal(t, "https://cdn.example.com/cartelas/groups/g1/card.png", obj.URL)
}

func TestUploadSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden bucket", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server).Upload(context.Background(), "a.png", "", strings.NewReader("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
	require.Contains(t, err.Error(), "forbidden bucket")
}

func TestPingChecksBucket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/b/cartelas/o", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	require.NoError(t, newTestClient(server).Ping(context.Background()))
}

func TestObjectNameKeepsExtension(t *testing.T) {
	name := ObjectName("/groups/abc/", "Cartela Grupo 1.PNG")
	require.True(t, strings.HasPrefix(name, "groups/abc/"))
	require.True(t, strings.HasSuffix(name, ".png"))
	require.NotEqual(t, name, ObjectName("groups/abc", "Cartela Grupo 1.PNG"))
}

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		httpClient:    server.Client(),
		defaultBucket: "cartelas",
		publicBaseURL: "https://cdn.example.com",
		apiBase:       server.URL + "/storage/v1",
		uploadBase:    server.URL + "/upload/storage/v1",
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "static", time.Now().Add(time.Hour), nil
		}},
	}
}
