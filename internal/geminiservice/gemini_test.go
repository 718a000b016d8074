package geminiservice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lunchgenius/internal/model"
)

type capturedRequest struct {
	Path   string
	APIKey string
	Body   map[string]any
}

type recorder struct {
	mu   sync.Mutex
	reqs []capturedRequest
}

func (r *recorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.reqs...)
}

// fakeGemini serves a canned generateContent answer and records each
// request it receives.
func fakeGemini(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(raw, &decoded)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, capturedRequest{
			Path:   r.URL.Path,
			APIKey: r.Header.Get("x-goog-api-key"),
			Body:   decoded,
		})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// textResponse wraps text as a single-candidate response.
func textResponse(t *testing.T, text string) string {
	t.Helper()
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(b)
}

var (
	testHistory  = model.MealHistory{Day1: "김치찌개", Day2: "돈까스", Day3: "짜장면"}
	testLocation = model.LocationData{Latitude: 37.5665, Longitude: 126.978}
)

func TestClient_SendsKeyHeaderAndModelPath(t *testing.T) {
	srv, reqs := fakeGemini(t, http.StatusOK, textResponse(t, "hi"))
	c := NewClient(srv.URL+"/", "gemini-2.5-flash", "server-key", time.Second)

	resp, err := c.GenerateContent(context.Background(), "", &GeminiPayload{
		Contents: []GeminiContent{{Parts: []GeminiPart{{Text: "ping"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text())

	require.Len(t, reqs.all(), 1)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", reqs.all()[0].Path)
	assert.Equal(t, "server-key", reqs.all()[0].APIKey)
}

func TestClient_PersonalKeyOverridesDefault(t *testing.T) {
	srv, reqs := fakeGemini(t, http.StatusOK, textResponse(t, "hi"))
	c := NewClient(srv.URL, "m", "server-key", time.Second)

	_, err := c.GenerateContent(context.Background(), "user-key", &GeminiPayload{})
	require.NoError(t, err)
	assert.Equal(t, "user-key", reqs.all()[0].APIKey)
}

func TestClient_MissingKeyStillCalls(t *testing.T) {
	srv, reqs := fakeGemini(t, http.StatusOK, textResponse(t, "hi"))
	c := NewClient(srv.URL, "m", "", time.Second)

	_, err := c.GenerateContent(context.Background(), "", &GeminiPayload{})
	require.NoError(t, err)
	require.Len(t, reqs.all(), 1)
	assert.Empty(t, reqs.all()[0].APIKey)
}

func TestClient_Non200IsSingleAttempt(t *testing.T) {
	srv, reqs := fakeGemini(t, http.StatusInternalServerError, `{"error":"boom"}`)
	c := NewClient(srv.URL, "m", "k", time.Second)

	_, err := c.GenerateContent(context.Background(), "", &GeminiPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, reqs.all(), 1)
}

func TestResponse_TextConcatenatesParts(t *testing.T) {
	var resp GeminiResponse
	require.NoError(t, json.Unmarshal([]byte(`{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`), &resp))
	assert.Equal(t, "ab", resp.Text())

	var empty GeminiResponse
	assert.Equal(t, "", empty.Text())
	assert.Nil(t, empty.Chunks())
}

func TestAnalyzeMenuPreferences_Success(t *testing.T) {
	recs := `[{"dishName":"쌀국수","reasoning":"따뜻함","calories":"약 450kcal","tags":["국물","베트남","가벼움"]},
	{"dishName":"포케","reasoning":"가벼움","calories":"약 400kcal","tags":["건강","하와이","생선"]},
	{"dishName":"마라탕","reasoning":"자극","calories":"약 700kcal","tags":["매운맛","중식","모험"]}]`
	srv, reqs := fakeGemini(t, http.StatusOK, textResponse(t, recs))
	r := NewRecommender(NewClient(srv.URL, "m", "k", time.Second))

	res := r.AnalyzeMenuPreferences(context.Background(), testHistory, model.WeatherRainy, testLocation, "")
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "쌀국수", res.Items[0].DishName)
	assert.Equal(t, []string{"매운맛", "중식", "모험"}, res.Items[2].Tags)

	body := reqs.all()[0].Body
	gen := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	schema := gen["responseSchema"].(map[string]any)
	assert.Equal(t, "ARRAY", schema["type"])
	items := schema["items"].(map[string]any)
	assert.ElementsMatch(t, []any{"dishName", "reasoning", "calories", "tags"}, items["required"])
	tags := items["properties"].(map[string]any)["tags"].(map[string]any)
	assert.Equal(t, "3", tags["minItems"])
	assert.Equal(t, "3", tags["maxItems"])

	prompt := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, prompt, "Rainy")
	assert.Contains(t, prompt, "37.5665")
	// Oldest meal first.
	assert.Less(t, strings.Index(prompt, "짜장면"), strings.Index(prompt, "돈까스"))
	assert.Less(t, strings.Index(prompt, "돈까스"), strings.Index(prompt, "김치찌개"))
}

func TestAnalyzeMenuPreferences_Fallback(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"API key not valid"}}`},
		{"broken envelope", http.StatusOK, `not json`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"malformed text", http.StatusOK, ""},
		{"null text", http.StatusOK, ""},
	}
	texts := map[string]string{
		"malformed text": "[{\"dishName\":",
		"null text":      "null",
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := tc.body
			if txt, ok := texts[tc.name]; ok {
				body = textResponse(t, txt)
			}
			srv, _ := fakeGemini(t, tc.status, body)
			r := NewRecommender(NewClient(srv.URL, "m", "k", time.Second))

			res := r.AnalyzeMenuPreferences(context.Background(), testHistory, model.WeatherSunny, testLocation, "")
			assert.Equal(t, OutcomeDegraded, res.Outcome)
			assert.Error(t, res.Err)
			assert.Equal(t, FallbackRecommendations(), res.Items)

			names := []string{res.Items[0].DishName, res.Items[1].DishName, res.Items[2].DishName}
			assert.Equal(t, []string{"비빔밥", "닭가슴살 샐러드", "우동"}, names)
		})
	}
}

func TestAnalyzeMenuPreferences_Unreachable(t *testing.T) {
	srv, _ := fakeGemini(t, http.StatusOK, "")
	url := srv.URL
	srv.Close()

	r := NewRecommender(NewClient(url, "m", "k", time.Second))
	res := r.AnalyzeMenuPreferences(context.Background(), testHistory, model.WeatherSunny, testLocation, "")
	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.Len(t, res.Items, 3)
}

func TestFindRestaurantsForDish_Grounding(t *testing.T) {
	resp := `{"candidates":[{
		"content":{"parts":[{"text":"근처 맛집입니다."}]},
		"groundingMetadata":{"groundingChunks":[
			{"web":{"uri":"https://example.com/a","title":"블로그 A"}},
			{"web":{"uri":"https://example.com/b"}},
			{"maps":{"title":"명동교자","address":"서울 중구","rating":4.5,"placeId":"abc"}},
			{"maps":{"title":"명동교자","address":"서울 중구","rating":4.5,"placeId":"abc"}},
			{"maps":{"rating":0}},
			{"maps":{"title":"칼국수집","rating":"4.2"}}
		]}
	}]}`
	srv, reqs := fakeGemini(t, http.StatusOK, resp)
	f := NewPlaceFinder(NewClient(srv.URL, "m", "k", time.Second))

	res := f.FindRestaurantsForDish(context.Background(), "칼국수", testLocation, "")
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "근처 맛집입니다.", res.Text)

	want := []model.RestaurantResult{
		{Name: "블로그 A", Address: "링크에서 확인하세요", URI: "https://example.com/a"},
		{Name: "명동교자", Address: "서울 중구", Rating: "★ 4.5", URI: "https://www.google.com/maps/place/?q=place_id:abc"},
		{Name: "명동교자", Address: "서울 중구", Rating: "★ 4.5", URI: "https://www.google.com/maps/place/?q=place_id:abc"},
		{Name: "알 수 없는 장소", Address: "주소 정보 없음"},
		{Name: "칼국수집", Address: "주소 정보 없음", Rating: "★ 4.2"},
	}
	assert.Equal(t, want, res.Places)

	body := reqs.all()[0].Body
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Contains(t, tools[0].(map[string]any), "googleMaps")
	latLng := body["toolConfig"].(map[string]any)["retrievalConfig"].(map[string]any)["latLng"].(map[string]any)
	assert.Equal(t, 37.5665, latLng["latitude"])
	assert.Equal(t, 126.978, latLng["longitude"])
	assert.NotContains(t, body, "generationConfig")
}

func TestFindRestaurantsForDish_DefaultText(t *testing.T) {
	srv, _ := fakeGemini(t, http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`)
	f := NewPlaceFinder(NewClient(srv.URL, "m", "k", time.Second))

	res := f.FindRestaurantsForDish(context.Background(), "우동", testLocation, "")
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "주변 음식점 정보를 불러왔습니다.", res.Text)
	assert.Empty(t, res.Places)
}

func TestFindRestaurantsForDish_Fallback(t *testing.T) {
	srv, _ := fakeGemini(t, http.StatusServiceUnavailable, `{}`)
	f := NewPlaceFinder(NewClient(srv.URL, "m", "k", time.Second))

	res := f.FindRestaurantsForDish(context.Background(), "비빔밥", testLocation, "")
	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Places)
	assert.NotNil(t, res.Places)
	assert.Contains(t, res.Text, "비빔밥")
	assert.Equal(t, "현재 지도 정보를 불러올 수 없지만, 지도 앱에서 '비빔밥'을(를) 검색해보세요!", res.Text)
}
