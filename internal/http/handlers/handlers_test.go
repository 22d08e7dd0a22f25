package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pixelloom/studio/internal/batch"
	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/http/handlers"
	"github.com/pixelloom/studio/internal/http/httpapi"
	"github.com/pixelloom/studio/internal/infra"
	"github.com/pixelloom/studio/internal/library"
	"github.com/pixelloom/studio/internal/storage"
)

type stubGenerator struct {
	generate func(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error)
}

func (s *stubGenerator) Generate(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
	return s.generate(ctx, input)
}

func testConfig() *infra.Config {
	return &infra.Config{
		AppEnv:                "test",
		Port:                  "0",
		DefaultLocale:         "en",
		BatchConcurrency:      2,
		MaxUploadDimension:    1536,
		ShakeVelocityPxPerSec: 2400,
		ShakeCooldown:         800 * time.Millisecond,
	}
}

func newTestServer(t *testing.T, gen *stubGenerator) *httptest.Server {
	t.Helper()
	cfg := testConfig()

	lib, err := library.Open(filepath.Join(t.TempDir(), "lib.db"))
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })

	assets, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	work := func(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
		return gen.Generate(ctx, input)
	}

	app := &handlers.App{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Generator: gen,
		Batches:   batch.NewManager(ctx, work, cfg.BatchConcurrency),
		Library:   lib,
		Assets:    assets,
	}
	srv := httptest.NewServer(httpapi.NewRouter(cfg, app))
	t.Cleanup(srv.Close)
	return srv
}

func okGenerator() *stubGenerator {
	return &stubGenerator{generate: func(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
		return domain.GeneratedAsset{MIME: "image/png", Width: 4, Height: 4, Data: encodedPNG(4, 4)}, nil
	}}
}

func encodedPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 0x80, A: 0xff})
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

type imagePayload struct {
	Image    []byte `json:"image"`
	MIME     string `json:"mime"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Modified bool   `json:"modified"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestPadMatchingRatioIsNoOp(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	src := encodedPNG(64, 64)
	resp := postJSON(t, srv.URL+"/v1/images/pad", map[string]any{
		"image":        src,
		"aspect_ratio": "1:1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[imagePayload](t, resp)
	if body.Modified {
		t.Fatal("matching ratio should report modified = false")
	}
	if !bytes.Equal(body.Image, src) {
		t.Fatal("no-op pad must return the original bytes")
	}
}

func TestPadRejectsBadRatio(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/images/pad", map[string]any{
		"image":        encodedPNG(8, 8),
		"aspect_ratio": "wide",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body := decodeBody[errorPayload](t, resp); body.Code != "bad_ratio" {
		t.Fatalf("code = %q, want bad_ratio", body.Code)
	}
}

func TestPadRejectsUndecodableImage(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/images/pad", map[string]any{
		"image":        []byte("definitely not an image"),
		"aspect_ratio": "16:9",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if body := decodeBody[errorPayload](t, resp); body.Code != "bad_image" {
		t.Fatalf("code = %q, want bad_image", body.Code)
	}
}

func TestCropProducesExactRatio(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/images/crop", map[string]any{
		"image":        encodedPNG(100, 60),
		"aspect_ratio": "1:1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[imagePayload](t, resp)
	if body.Width != 60 || body.Height != 60 {
		t.Fatalf("cropped to %dx%d, want 60x60", body.Width, body.Height)
	}
}

func TestPrintSheetCapacityError(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/images/print-sheet", map[string]any{
		"image":          encodedPNG(8, 8),
		"cell_width_cm":  30,
		"cell_height_cm": 30,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if body := decodeBody[errorPayload](t, resp); body.Code != "sheet_capacity" {
		t.Fatalf("code = %q, want sheet_capacity", body.Code)
	}
}

func TestMaskReplayReportsPaint(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/images/mask", map[string]any{
		"width":  100,
		"height": 100,
		"strokes": []map[string]any{
			{
				"mode":       "paint",
				"brush_size": 12,
				"points":     []map[string]float64{{"x": 20, "y": 20}, {"x": 60, "y": 60}},
			},
		},
		"target_width":  50,
		"target_height": 50,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[struct {
		Mask     []byte `json:"mask"`
		HasPaint bool   `json:"has_paint"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	}](t, resp)
	if !body.HasPaint {
		t.Fatal("painted mask should report has_paint = true")
	}
	if body.Width != 50 || body.Height != 50 {
		t.Fatalf("mask resampled to %dx%d, want 50x50", body.Width, body.Height)
	}
	if _, err := png.Decode(bytes.NewReader(body.Mask)); err != nil {
		t.Fatalf("mask is not valid PNG: %v", err)
	}
}

func TestGeneratePersistsAsset(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/generate", map[string]any{"prompt": "watercolor fox"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[struct {
		MIME       string `json:"mime"`
		Data       []byte `json:"data"`
		StorageKey string `json:"storage_key"`
	}](t, resp)
	if body.MIME != "image/png" || len(body.Data) == 0 {
		t.Fatalf("unexpected asset: mime=%q len=%d", body.MIME, len(body.Data))
	}
	if body.StorageKey == "" {
		t.Fatal("expected a storage key for the persisted asset")
	}
}

func TestGenerateKeepsProviderMessageVerbatim(t *testing.T) {
	gen := &stubGenerator{generate: func(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
		return domain.GeneratedAsset{}, errors.New("Resource has been exhausted (e.g. check quota).")
	}}
	srv := newTestServer(t, gen)

	resp := postJSON(t, srv.URL+"/v1/generate", map[string]any{"prompt": "anything"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	body := decodeBody[errorPayload](t, resp)
	if body.Message != "Resource has been exhausted (e.g. check quota)." {
		t.Fatalf("message = %q, want the provider text untouched", body.Message)
	}
}

type batchPayload struct {
	BatchID string `json:"batch_id"`
	Jobs    []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"jobs"`
}

func TestBatchLifecycle(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/batches", map[string]any{
		"items": []map[string]any{
			{"prompt": "red"}, {"prompt": "green"}, {"prompt": "blue"},
		},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("create status = %d, want 202", resp.StatusCode)
	}
	created := decodeBody[batchPayload](t, resp)
	if len(created.Jobs) != 3 {
		t.Fatalf("created %d jobs, want 3", len(created.Jobs))
	}
	for _, job := range created.Jobs {
		if job.Status != "pending" {
			t.Fatalf("job %s created as %q, want pending", job.ID, job.Status)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	var current batchPayload
	for {
		getResp, err := http.Get(srv.URL + "/v1/batches/" + created.BatchID)
		if err != nil {
			t.Fatalf("GET batch: %v", err)
		}
		current = decodeBody[batchPayload](t, getResp)
		done := 0
		for _, job := range current.Jobs {
			if job.Status == "done" {
				done++
			}
		}
		if done == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("batch did not finish: %+v", current.Jobs)
		}
		time.Sleep(10 * time.Millisecond)
	}

	archResp, err := http.Get(srv.URL + "/v1/batches/" + created.BatchID + "/archive")
	if err != nil {
		t.Fatalf("GET archive: %v", err)
	}
	defer archResp.Body.Close()
	if archResp.StatusCode != http.StatusOK {
		t.Fatalf("archive status = %d, want 200", archResp.StatusCode)
	}
	if ct := archResp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("archive content type = %q, want application/zip", ct)
	}

	retryResp := postJSON(t, srv.URL+"/v1/batches/"+created.BatchID+"/jobs/nope/retry", map[string]any{})
	if retryResp.StatusCode != http.StatusNotFound {
		t.Fatalf("retry of unknown job status = %d, want 404", retryResp.StatusCode)
	}
	retryResp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/batches/"+created.BatchID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE batch: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("discard status = %d, want 204", delResp.StatusCode)
	}

	goneResp, err := http.Get(srv.URL + "/v1/batches/" + created.BatchID)
	if err != nil {
		t.Fatalf("GET discarded batch: %v", err)
	}
	goneResp.Body.Close()
	if goneResp.StatusCode != http.StatusNotFound {
		t.Fatalf("discarded batch status = %d, want 404", goneResp.StatusCode)
	}
}

func TestBatchIsolatesFailures(t *testing.T) {
	gen := &stubGenerator{generate: func(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
		if input.Prompt == "bad" {
			return domain.GeneratedAsset{}, errors.New("quota exceeded for model")
		}
		return domain.GeneratedAsset{MIME: "image/png", Data: encodedPNG(2, 2)}, nil
	}}
	srv := newTestServer(t, gen)

	resp := postJSON(t, srv.URL+"/v1/batches", map[string]any{
		"items": []map[string]any{{"prompt": "ok"}, {"prompt": "bad"}},
	})
	created := decodeBody[batchPayload](t, resp)

	deadline := time.Now().Add(5 * time.Second)
	for {
		getResp, err := http.Get(srv.URL + "/v1/batches/" + created.BatchID)
		if err != nil {
			t.Fatalf("GET batch: %v", err)
		}
		current := decodeBody[batchPayload](t, getResp)
		terminal := 0
		var failed string
		for _, job := range current.Jobs {
			if job.Status != "pending" {
				terminal++
			}
			if job.Status == "error" {
				failed = job.Error
			}
		}
		if terminal == 2 {
			if failed != "quota exceeded for model" {
				t.Fatalf("job error = %q, want the provider message verbatim", failed)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("batch did not settle: %+v", current.Jobs)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBatchRejectsEmptyItems(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp := postJSON(t, srv.URL+"/v1/batches", map[string]any{"items": []map[string]any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLibraryRoundtrip(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	payload, _ := json.Marshal(map[string]any{"refs": []string{"a.png", "b.png"}})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/library/poses", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT library: %v", err)
	}
	putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d, want 200", putResp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/v1/library/poses")
	if err != nil {
		t.Fatalf("GET library: %v", err)
	}
	entry := decodeBody[struct {
		Key  string   `json:"key"`
		Refs []string `json:"refs"`
	}](t, getResp)
	if entry.Key != "poses" || len(entry.Refs) != 2 || entry.Refs[0] != "a.png" {
		t.Fatalf("entry = %+v, want poses with [a.png b.png]", entry)
	}
}

func TestLibraryMissingKeyReadsEmpty(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp, err := http.Get(srv.URL + "/v1/library/never-written")
	if err != nil {
		t.Fatalf("GET library: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	entry := decodeBody[struct {
		Refs []string `json:"refs"`
	}](t, resp)
	if len(entry.Refs) != 0 {
		t.Fatalf("refs = %v, want empty", entry.Refs)
	}
}

func TestClientConfigExposesShakeTuning(t *testing.T) {
	srv := newTestServer(t, okGenerator())

	resp, err := http.Get(srv.URL + "/v1/config")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	body := decodeBody[map[string]any](t, resp)
	if _, ok := body["shake_velocity_px_per_sec"]; !ok {
		t.Fatal("config missing shake_velocity_px_per_sec")
	}
	if body["default_locale"] != "en" {
		t.Fatalf("default_locale = %v, want en", body["default_locale"])
	}
}
