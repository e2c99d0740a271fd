package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct {
	url   string
	calls atomic.Int32
	err   error
}

func (f *fakeSigner) RequestSignature(ctx context.Context, dest models.Destination) (models.UploadSignature, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return models.UploadSignature{}, f.err
	}
	return models.UploadSignature{
		CloudName: "demo",
		APIKey:    "key",
		Timestamp: 1_700_000_000 + int64(n),
		Folder:    dest.ResolveFolder(),
		PublicID:  "abc",
		Signature: fmt.Sprintf("sig-%d", n),
		UploadURL: f.url,
	}, nil
}

type progressLog struct {
	mu     sync.Mutex
	values []int
}

func (p *progressLog) add(v int) {
	p.mu.Lock()
	p.values = append(p.values, v)
	p.mu.Unlock()
}

func (p *progressLog) snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.values...)
}

func assertMonotonic(t *testing.T, values []int) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		require.GreaterOrEqual(t, values[i], values[i-1], "progress went backwards: %v", values)
	}
}

func jpeg(size int) models.File {
	return models.NewFile("photo.jpg", "image/jpeg", []byte(strings.Repeat("x", size)))
}

func providerOK(t *testing.T, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"public_id":  r.FormValue("folder") + "/abc",
			"secure_url": "https://res.cloudinary.com/demo/image/upload/v1/" + r.FormValue("folder") + "/abc.jpg",
			"bytes":      123,
			"eager":      []map[string]string{{"secure_url": "https://res.cloudinary.com/demo/image/upload/f_jpg/abc.jpg"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func providerStatus(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func blockingServer(t *testing.T, arrived chan<- struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDirectSigned_Success(t *testing.T) {
	srv := providerOK(t, func(r *http.Request) {
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "orders/o1", r.FormValue("folder"))
		assert.Equal(t, "abc", r.FormValue("public_id"))
		assert.NotEmpty(t, r.FormValue("timestamp"))
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.Empty(t, r.FormValue("transformation"))

		f, h, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "photo.jpg", h.Filename)
	})
	signer := &fakeSigner{url: srv.URL}
	s := NewDirectSigned(signer, srv.Client())

	var prog progressLog
	res := s.Upload(context.Background(), Request{
		File:        jpeg(256 << 10),
		Destination: models.Destination{OrderID: "o1"},
		OnProgress:  prog.add,
	})

	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, models.MethodDirectSigned, res.Method)
	assert.Equal(t, "orders/o1/abc", res.Identifier)
	assert.Contains(t, res.URL, "orders/o1/abc.jpg")

	values := prog.snapshot()
	require.NotEmpty(t, values)
	assertMonotonic(t, values)
	assert.Equal(t, 100, values[len(values)-1])
}

func TestDirectSigned_FreshSignaturePerAttempt(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	srv := providerOK(t, func(r *http.Request) {
		mu.Lock()
		seen = append(seen, r.FormValue("signature"))
		mu.Unlock()
	})
	signer := &fakeSigner{url: srv.URL}
	s := NewDirectSigned(signer, srv.Client())

	for i := 0; i < 2; i++ {
		res := s.Upload(context.Background(), Request{File: jpeg(10)})
		require.True(t, res.Success)
	}
	assert.Equal(t, int32(2), signer.calls.Load())
	assert.Equal(t, []string{"sig-1", "sig-2"}, seen)
}

func TestDirectSigned_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want error
	}{
		{"stale signature", http.StatusBadRequest, `{"error":{"message":"Stale request - reported time is 2023-11-14 22:13:20 +0000 which is more than 1 hour ago"}}`, common.ErrSignatureExpired},
		{"bad signature", http.StatusUnauthorized, `{"error":{"message":"Invalid Signature abc"}}`, common.ErrProviderRejected},
		{"too large", http.StatusBadRequest, `{"error":{"message":"File size too large"}}`, common.ErrProviderRejected},
		{"provider down", http.StatusServiceUnavailable, `upstream`, common.ErrNetwork},
		{"malformed", http.StatusOK, `not json`, common.ErrBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := providerStatus(t, tt.code, tt.body)
			s := NewDirectSigned(&fakeSigner{url: srv.URL}, srv.Client())

			res := s.Upload(context.Background(), Request{File: jpeg(10)})
			require.False(t, res.Success)
			assert.False(t, res.Aborted)
			assert.ErrorIs(t, res.Err, tt.want)
		})
	}
}

func TestDirectSigned_SignerFailure(t *testing.T) {
	s := NewDirectSigned(&fakeSigner{err: fmt.Errorf("%w: unreachable", common.ErrBackend)}, nil)
	res := s.Upload(context.Background(), Request{File: jpeg(10)})
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, common.ErrBackend)
}

func TestDirectSigned_NetworkErrorTimeoutAndAbortAreDistinct(t *testing.T) {
	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := NewDirectSigned(&fakeSigner{url: url}, nil).Upload(context.Background(), Request{File: jpeg(10)})
		assert.ErrorIs(t, res.Err, common.ErrNetwork)
		assert.NotErrorIs(t, res.Err, common.ErrTimeout)
		assert.False(t, res.Aborted)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := blockingServer(t, make(chan struct{}, 1))
		s := NewDirectSigned(&fakeSigner{url: srv.URL}, srv.Client()).WithTimeout(30 * time.Millisecond)

		res := s.Upload(context.Background(), Request{File: jpeg(10)})
		assert.ErrorIs(t, res.Err, common.ErrTimeout)
		assert.False(t, res.Aborted)
	})

	t.Run("abort", func(t *testing.T) {
		arrived := make(chan struct{}, 1)
		srv := blockingServer(t, arrived)
		s := NewDirectSigned(&fakeSigner{url: srv.URL}, srv.Client())

		go func() {
			<-arrived
			s.Abort()
		}()

		res := s.Upload(context.Background(), Request{File: jpeg(10)})
		assert.True(t, res.Aborted)
		assert.ErrorIs(t, res.Err, common.ErrAborted)
	})
}

func TestInflight_NewUploadSupersedesPrevious(t *testing.T) {
	arrived := make(chan struct{}, 1)
	srv := blockingServer(t, arrived)
	s := NewDirectSigned(&fakeSigner{url: srv.URL}, srv.Client()).WithTimeout(200 * time.Millisecond)

	first := make(chan models.UploadResult, 1)
	go func() {
		first <- s.Upload(context.Background(), Request{File: jpeg(10)})
	}()
	<-arrived

	go s.Upload(context.Background(), Request{File: jpeg(10)})

	select {
	case res := <-first:
		assert.True(t, res.Aborted)
		assert.ErrorContains(t, res.Err, "superseded")
	case <-time.After(time.Second):
		t.Fatal("first upload was not superseded")
	}
}

func TestDirectUnsigned(t *testing.T) {
	srv := providerOK(t, func(r *http.Request) {
		assert.Equal(t, "market_unsigned", r.FormValue("upload_preset"))
		assert.Equal(t, DefaultEager, r.FormValue("eager"))
		assert.Equal(t, "products/p1", r.FormValue("folder"))
		assert.Empty(t, r.FormValue("signature"))
	})
	s := NewDirectUnsigned(srv.URL, "market_unsigned", srv.Client())

	heic := models.NewFile("IMG_0001.HEIC", "image/heic", []byte("heic-bytes"))
	assert.True(t, s.Supports(heic))
	assert.False(t, s.Supports(jpeg(1)))
	assert.False(t, NewDirectUnsigned("", "", nil).Supports(heic))
	assert.Equal(t, DefaultConversionTimeout, s.timeout)

	res := s.Upload(context.Background(), Request{File: heic, Destination: models.Destination{ProductID: "p1"}})
	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, models.MethodDirectUnsigned, res.Method)
	assert.Equal(t, "products/p1/abc", res.Identifier)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/f_jpg/abc.jpg", res.URL)
}

type fakeProxy struct {
	delay time.Duration
	got   models.ProxyRequest
	resp  models.ProxyResponse
	err   error
}

func (f *fakeProxy) ProxyUpload(ctx context.Context, req models.ProxyRequest) (models.ProxyResponse, error) {
	f.got = req
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return models.ProxyResponse{}, ctx.Err()
	}
	return f.resp, f.err
}

func TestProxied_SynthesizesProgressAndNormalizesIdentifier(t *testing.T) {
	backend := &fakeProxy{
		delay: 40 * time.Millisecond,
		resp: models.ProxyResponse{
			Success:      true,
			MainImageURL: "https://res.cloudinary.com/demo/image/upload/v1699999999/orders/o1/abc.jpg",
			PublicID:     "v1699999999/orders/o1/abc",
		},
	}
	s := NewProxied(backend).WithInterval(time.Millisecond)
	file := jpeg(64)

	var prog progressLog
	res := s.Upload(context.Background(), Request{File: file, Destination: models.Destination{OrderID: "o1"}, OnProgress: prog.add})

	require.True(t, res.Success)
	assert.Equal(t, "orders/o1/abc", res.Identifier)
	assert.Equal(t, models.MethodProxy, res.Method)

	assert.True(t, strings.HasPrefix(backend.got.Source, "data:image/jpeg;base64,"))
	assert.Equal(t, "orders/o1", backend.got.Folder)
	assert.Equal(t, "o1", backend.got.OrderID)
	assert.NoError(t, cryptox.VerifyDigest(file.Data, backend.got.Digest))

	values := prog.snapshot()
	require.Greater(t, len(values), 1)
	assertMonotonic(t, values)
	assert.LessOrEqual(t, values[len(values)-1], 90)
}

func TestProxied_IdentifierFromURLWhenMissing(t *testing.T) {
	backend := &fakeProxy{resp: models.ProxyResponse{
		Success:      true,
		MainImageURL: "https://res.cloudinary.com/demo/image/upload/w_300/v12/products/x.png",
	}}
	res := NewProxied(backend).Upload(context.Background(), Request{File: jpeg(1)})
	require.True(t, res.Success)
	assert.Equal(t, "products/x", res.Identifier)
}

func TestProxied_BackendFailure(t *testing.T) {
	backend := &fakeProxy{err: fmt.Errorf("%w: too large", common.ErrBackend)}
	res := NewProxied(backend).Upload(context.Background(), Request{File: jpeg(1)})
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, common.ErrBackend)
	assert.False(t, res.Aborted)
}

func TestProxied_Abort(t *testing.T) {
	backend := &fakeProxy{delay: time.Minute}
	s := NewProxied(backend)

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Abort()
	}()

	res := s.Upload(context.Background(), Request{File: jpeg(1)})
	assert.True(t, res.Aborted)
}

type fakePresigner struct {
	url string
	err error
}

func (f *fakePresigner) PresignStorage(ctx context.Context, fileName, mimeType, folder string) (models.StoragePresign, error) {
	if f.err != nil {
		return models.StoragePresign{}, f.err
	}
	key := folder + "/0b4c.jpg"
	return models.StoragePresign{Key: key, UploadURL: f.url + "/" + key, PublicURL: "https://media.example.com/" + key}, nil
}

func TestOriginStorage(t *testing.T) {
	var gotBody []byte
	var gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewOriginStorage(&fakePresigner{url: srv.URL}, srv.Client())
	file := jpeg(32)

	res := s.Upload(context.Background(), Request{File: file})
	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, models.MethodOriginStorage, res.Method)
	assert.Equal(t, "uploads/0b4c", res.Identifier)
	assert.Equal(t, "https://media.example.com/uploads/0b4c.jpg", res.URL)
	assert.Equal(t, file.Data, gotBody)
	assert.Equal(t, "image/jpeg", gotCT)
}

func TestOriginStorage_Failures(t *testing.T) {
	t.Run("storage rejects", func(t *testing.T) {
		srv := providerStatus(t, http.StatusForbidden, "SignatureDoesNotMatch")
		res := NewOriginStorage(&fakePresigner{url: srv.URL}, srv.Client()).Upload(context.Background(), Request{File: jpeg(1)})
		assert.ErrorIs(t, res.Err, common.ErrProviderRejected)
	})

	t.Run("storage down", func(t *testing.T) {
		srv := providerStatus(t, http.StatusInternalServerError, "")
		res := NewOriginStorage(&fakePresigner{url: srv.URL}, srv.Client()).Upload(context.Background(), Request{File: jpeg(1)})
		assert.ErrorIs(t, res.Err, common.ErrNetwork)
	})

	t.Run("presign fails", func(t *testing.T) {
		res := NewOriginStorage(&fakePresigner{err: fmt.Errorf("%w: %w", common.ErrBackend, common.ErrNetwork)}, nil).Upload(context.Background(), Request{File: jpeg(1)})
		assert.ErrorIs(t, res.Err, common.ErrBackend)
	})
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, classify(ctx, fmt.Errorf("dial tcp: refused")), common.ErrNetwork)
	assert.ErrorIs(t, classify(ctx, common.ErrProviderRejected), common.ErrProviderRejected)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, classify(cctx, context.Canceled), common.ErrAborted)

	dctx, dcancel := context.WithTimeout(ctx, -time.Second)
	defer dcancel()
	assert.ErrorIs(t, classify(dctx, context.DeadlineExceeded), common.ErrTimeout)
}

type fakeBackend struct {
	*fakeSigner
	*fakeProxy
	*fakePresigner
}

func TestChain_PriorityOrder(t *testing.T) {
	b := fakeBackend{&fakeSigner{}, &fakeProxy{}, &fakePresigner{}}

	chain := Chain(b, ChainConfig{UploadURL: "https://api.example.com/upload", UploadPreset: "heic"})
	methods := make([]models.Method, 0, len(chain))
	for _, s := range chain {
		methods = append(methods, s.Method())
	}
	assert.Equal(t, []models.Method{
		models.MethodDirectSigned,
		models.MethodDirectUnsigned,
		models.MethodProxy,
		models.MethodOriginStorage,
	}, methods)

	heic := models.NewFile("shot.heic", "image/heic", []byte("x"))
	assert.False(t, chain[0].Supports(heic))
	assert.True(t, chain[1].Supports(heic))
}

func TestChain_UnsignedDisabledWithoutPreset(t *testing.T) {
	chain := Chain(fakeBackend{&fakeSigner{}, &fakeProxy{}, &fakePresigner{}}, ChainConfig{})
	heic := models.NewFile("shot.heic", "image/heic", []byte("x"))
	assert.False(t, chain[1].Supports(heic))
	assert.True(t, chain[2].Supports(heic))
}
