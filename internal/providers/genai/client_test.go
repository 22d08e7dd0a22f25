package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// tinyPNG is a 1x1 transparent PNG.
var tinyPNG = mustBase64("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func mustBase64(s string) []byte {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return data
}

func TestGenerateImageSyntheticWithoutKey(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	asset, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:      "studio portrait",
		AspectRatio: "4:5",
		RequestID:   "req-1",
	})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if asset.Format != "image/png" || len(asset.Data) == 0 {
		t.Fatalf("synthetic asset = %q/%d bytes, want png with data", asset.Format, len(asset.Data))
	}
	if asset.Width != 1024 || asset.Height != 1280 {
		t.Fatalf("synthetic asset = %dx%d, want 1024x1280 for 4:5", asset.Width, asset.Height)
	}
}

func TestGenerateImageSyntheticIsDeterministic(t *testing.T) {
	client, _ := NewClient(Options{})
	req := ImageRequest{Prompt: "same prompt", RequestID: "req-7"}
	first, err := client.GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("first call error: %v", err)
	}
	second, err := client.GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("second call error: %v", err)
	}
	if len(first.Data) != len(second.Data) {
		t.Fatal("synthetic output should be deterministic for identical requests")
	}
}

func TestGenerateImageRemoteInlineData(t *testing.T) {
	var gotPath string
	var gotBody geminiGenerateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		resp := geminiGenerateContentResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{
					InlineData: &geminiInlineData{
						MimeType: "image/png",
						Data:     base64.StdEncoding.EncodeToString(tinyPNG),
					},
				}}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	asset, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt: "a red square",
		Images: []InputImage{{MIME: "image/png", Data: tinyPNG}},
	})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if asset.Width != 1 || asset.Height != 1 {
		t.Fatalf("asset = %dx%d, want 1x1", asset.Width, asset.Height)
	}
	if gotPath != "/models/test-model:generateContent" {
		t.Fatalf("request path = %q", gotPath)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 2 {
		t.Fatalf("request should carry one text part and one inline image part")
	}
}

func TestGenerateImagePreservesProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "Resource has been exhausted"},
		})
	}))
	defer server.Close()

	client, _ := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected provider error")
	}
	if !strings.Contains(err.Error(), "Resource has been exhausted") {
		t.Fatalf("err = %v, want verbatim provider message", err)
	}
}

func TestGenerateImageNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiGenerateContentResponse{})
	}))
	defer server.Close()

	client, _ := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error when no candidates carry image data")
	}
}
